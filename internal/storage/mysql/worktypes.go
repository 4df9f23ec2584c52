package mysql

import (
	"context"
	"fmt"

	"erp-golang/internal/storage"
)

func (s *Storage) GetWorkTypes(ctx context.Context, department string) ([]storage.WorkType, error) {
	const op = "storage.mysql.GetWorkTypes"

	query := `
		SELECT id, name, hourly_rate, standard_time, department, is_active
		FROM erp_work_types
		WHERE is_active = TRUE`
	var args []interface{}

	if department != "" {
		query += ` AND department = ?`
		args = append(args, department)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения видов работ: %w", op, err)
	}
	defer rows.Close()

	var workTypes []storage.WorkType
	for rows.Next() {
		var wt storage.WorkType
		if err := rows.Scan(&wt.ID, &wt.Name, &wt.HourlyRate, &wt.StandardTime, &wt.Department, &wt.IsActive); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		workTypes = append(workTypes, wt)
	}

	return workTypes, rows.Err()
}

func (s *Storage) SaveWorkType(ctx context.Context, wt storage.WorkType) (int64, error) {
	const op = "storage.mysql.SaveWorkType"

	query := `
		INSERT INTO erp_work_types (name, hourly_rate, standard_time, department, is_active)
		VALUES (?, ?, ?, ?, TRUE)`

	res, err := s.db.ExecContext(ctx, query, wt.Name, wt.HourlyRate, wt.StandardTime, wt.Department)
	if err != nil {
		return 0, fmt.Errorf("%s: ошибка сохранения вида работ: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) UpdateWorkType(ctx context.Context, wt storage.WorkType) error {
	const op = "storage.mysql.UpdateWorkType"

	query := `
		UPDATE erp_work_types SET
			name = ?, hourly_rate = ?, standard_time = ?, department = ?, is_active = ?
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query,
		wt.Name, wt.HourlyRate, wt.StandardTime, wt.Department, wt.IsActive, wt.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления вида работ: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: вид работ id=%d не найден", op, wt.ID)
	}

	return nil
}
