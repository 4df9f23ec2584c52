package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_Simple(t *testing.T) {
	reg := Default()

	v, err := reg.Convert(200, "cm", "m")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	v, err = reg.Convert(1500, "g", "kg")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	v, err = reg.Convert(20000, "cm2", "m2")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}

func TestConvert_SameUnit(t *testing.T) {
	reg := Default()

	v, err := reg.Convert(3.14, "kg", "kg")
	require.NoError(t, err)
	assert.Equal(t, 3.14, v)
}

func TestConvert_RoundTrip(t *testing.T) {
	reg := Default()

	// прямая и обратная конвертация возвращает исходное значение
	cases := []struct {
		value    float64
		from, to string
	}{
		{1234.5, "mm", "m"},
		{2.75, "m", "cm"},
		{0.125, "kg", "g"},
		{42, "m2", "cm2"},
		{3.5, "l", "m3"},
	}

	for _, tc := range cases {
		there, err := reg.Convert(tc.value, tc.from, tc.to)
		require.NoError(t, err)
		back, err := reg.Convert(there, tc.to, tc.from)
		require.NoError(t, err)
		assert.InDelta(t, tc.value, back, 1e-6, "%v %s->%s->%s", tc.value, tc.from, tc.to, tc.from)
	}
}

func TestConvert_IncompatibleTypes(t *testing.T) {
	reg := Default()

	// раньше значение молча возвращалось как есть — теперь это ошибка
	_, err := reg.Convert(5, "kg", "m")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompatibleUnits)

	_, err = reg.Convert(5, "m2", "m3")
	assert.ErrorIs(t, err, ErrIncompatibleUnits)
}

func TestConvert_UnknownUnit(t *testing.T) {
	reg := Default()

	_, err := reg.Convert(5, "kg", "parsec")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnitNotFound)

	_, err = reg.Convert(5, "parsec", "kg")
	assert.ErrorIs(t, err, ErrUnitNotFound)
}

func TestArea(t *testing.T) {
	reg := Default()

	area, unit, err := reg.Area(200, 100, "cm")
	require.NoError(t, err)
	assert.Equal(t, "cm2", unit)
	assert.Equal(t, 20000.0, area)

	// 200см x 100см = 2 м²
	m2, err := reg.Convert(area, unit, "m2")
	require.NoError(t, err)
	assert.Equal(t, 2.0, m2)
}

func TestArea_NotLinearUnit(t *testing.T) {
	reg := Default()

	_, _, err := reg.Area(2, 3, "kg")
	assert.ErrorIs(t, err, ErrIncompatibleUnits)
}

func TestVolume(t *testing.T) {
	reg := Default()

	vol, unit, err := reg.Volume(100, 100, 100, "cm")
	require.NoError(t, err)
	assert.Equal(t, "cm3", unit)

	m3, err := reg.Convert(vol, unit, "m3")
	require.NoError(t, err)
	assert.Equal(t, 1.0, m3)
}

func TestRegistry_FromDBRows(t *testing.T) {
	// справочник из БД работает так же, как встроенный
	reg := NewRegistry(DefaultUnits())

	v, err := reg.Convert(1000, "mm", "m")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}
