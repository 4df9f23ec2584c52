package mysql

import (
	"context"
	"fmt"

	"erp-golang/internal/storage"
)

func (s *Storage) GetMeasurementUnits(ctx context.Context) ([]storage.MeasurementUnit, error) {
	const op = "storage.mysql.GetMeasurementUnits"

	query := `
		SELECT id, symbol, name, type, conversion_factor
		FROM erp_measurement_units
		ORDER BY type, conversion_factor`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения единиц измерения: %w", op, err)
	}
	defer rows.Close()

	var units []storage.MeasurementUnit
	for rows.Next() {
		var u storage.MeasurementUnit
		if err := rows.Scan(&u.ID, &u.Symbol, &u.Name, &u.Type, &u.ConversionFactor); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		units = append(units, u)
	}

	return units, rows.Err()
}
