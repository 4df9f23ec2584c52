package mysql

import (
	"context"
	"fmt"

	"erp-golang/internal/storage"
)

const materialColumns = `
	m.id, m.articul, m.name, m.unit, m.price, m.currency,
	m.base_unit, m.calculation_unit, m.conversion_factor, m.is_active`

func scanMaterial(scanner interface{ Scan(...any) error }, m *storage.MaterialItem) error {
	return scanner.Scan(
		&m.ID, &m.Articul, &m.Name, &m.Unit, &m.Price, &m.Currency,
		&m.BaseUnit, &m.CalculationUnit, &m.ConversionFactor, &m.IsActive,
	)
}

func (s *Storage) GetMaterials(ctx context.Context, search string) ([]storage.MaterialItem, error) {
	const op = "storage.mysql.GetMaterials"

	query := `SELECT` + materialColumns + `
		FROM erp_materials m
		WHERE m.is_active = TRUE`
	var args []interface{}

	if search != "" {
		query += ` AND (m.name LIKE ? OR m.articul LIKE ?)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY m.name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения материалов: %w", op, err)
	}
	defer rows.Close()

	var materials []storage.MaterialItem
	for rows.Next() {
		var m storage.MaterialItem
		if err := scanMaterial(rows, &m); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		materials = append(materials, m)
	}

	return materials, rows.Err()
}

func (s *Storage) SaveMaterial(ctx context.Context, m storage.MaterialItem) (int64, error) {
	const op = "storage.mysql.SaveMaterial"

	query := `
		INSERT INTO erp_materials
			(articul, name, unit, price, currency, base_unit, calculation_unit, conversion_factor, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, TRUE)`

	res, err := s.db.ExecContext(ctx, query,
		m.Articul, m.Name, m.Unit, m.Price, m.Currency,
		m.BaseUnit, m.CalculationUnit, m.ConversionFactor,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: ошибка сохранения материала: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) UpdateMaterial(ctx context.Context, m storage.MaterialItem) error {
	const op = "storage.mysql.UpdateMaterial"

	query := `
		UPDATE erp_materials SET
			articul = ?, name = ?, unit = ?, price = ?, currency = ?,
			base_unit = ?, calculation_unit = ?, conversion_factor = ?, is_active = ?
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query,
		m.Articul, m.Name, m.Unit, m.Price, m.Currency,
		m.BaseUnit, m.CalculationUnit, m.ConversionFactor, m.IsActive,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления материала: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: материал id=%d не найден", op, m.ID)
	}

	return nil
}
