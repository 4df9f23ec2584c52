package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"erp-golang/internal/storage"
)

func (s *Storage) GetCalcSettings(ctx context.Context) (*storage.CalcSettings, error) {
	const op = "storage.mysql.GetCalcSettings"

	query := `
		SELECT id, vat_rate_percent, default_margin_percent, updated_at
		FROM erp_calc_settings
		ORDER BY id
		LIMIT 1`

	var cfg storage.CalcSettings
	err := s.db.QueryRowContext(ctx, query).Scan(
		&cfg.ID,
		&cfg.VATRatePercent,
		&cfg.DefaultMarginPercent,
		&cfg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// До первой настройки считаем по умолчанию
		return &storage.CalcSettings{VATRatePercent: 20, DefaultMarginPercent: 25}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения настроек расчёта: %w", op, err)
	}

	return &cfg, nil
}

func (s *Storage) UpdateCalcSettings(ctx context.Context, cfg storage.CalcSettings) error {
	const op = "storage.mysql.UpdateCalcSettings"

	query := `
		INSERT INTO erp_calc_settings (id, vat_rate_percent, default_margin_percent, updated_at)
		VALUES (1, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			vat_rate_percent = VALUES(vat_rate_percent),
			default_margin_percent = VALUES(default_margin_percent),
			updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, cfg.VATRatePercent, cfg.DefaultMarginPercent); err != nil {
		return fmt.Errorf("%s: ошибка сохранения настроек расчёта: %w", op, err)
	}

	return nil
}
