package mysql

import (
	"context"
	"fmt"

	"erp-golang/internal/storage"
)

func (s *Storage) GetFundCategories(ctx context.Context) ([]storage.FundCategory, error) {
	const op = "storage.mysql.GetFundCategories"

	query := `
		SELECT id, name, planned_amount, year, is_active
		FROM erp_fund_categories
		WHERE is_active = TRUE
		ORDER BY year DESC, name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения категорий фондов: %w", op, err)
	}
	defer rows.Close()

	var categories []storage.FundCategory
	for rows.Next() {
		var c storage.FundCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.PlannedAmount, &c.Year, &c.IsActive); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// GetFundCategoryPlanned — плановые суммы по списку категорий, для
// процентных фондов при расчёте себестоимости.
func (s *Storage) GetFundCategoryPlanned(ctx context.Context, categoryIDs []int64) (map[int64]float64, error) {
	const op = "storage.mysql.GetFundCategoryPlanned"

	planned := make(map[int64]float64, len(categoryIDs))
	if len(categoryIDs) == 0 {
		return planned, nil
	}

	query := fmt.Sprintf(`
		SELECT id, planned_amount
		FROM erp_fund_categories
		WHERE id IN (%s)`, placeholders(len(categoryIDs)))

	args := make([]interface{}, len(categoryIDs))
	for i, id := range categoryIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения плановых сумм: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var amount float64
		if err := rows.Scan(&id, &amount); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		planned[id] = amount
	}

	return planned, rows.Err()
}

func (s *Storage) SaveFundCategory(ctx context.Context, category storage.FundCategory) (int64, error) {
	const op = "storage.mysql.SaveFundCategory"

	query := `
		INSERT INTO erp_fund_categories (name, planned_amount, year, is_active)
		VALUES (?, ?, ?, TRUE)`

	res, err := s.db.ExecContext(ctx, query, category.Name, category.PlannedAmount, category.Year)
	if err != nil {
		return 0, fmt.Errorf("%s: ошибка сохранения категории фондов: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UpdateFundCategoryPlanned меняет плановую сумму категории. После
// обновления сервис пересчитывает изделия, завязанные на категорию.
func (s *Storage) UpdateFundCategoryPlanned(ctx context.Context, categoryID int64, plannedAmount float64) error {
	const op = "storage.mysql.UpdateFundCategoryPlanned"

	query := `UPDATE erp_fund_categories SET planned_amount = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, plannedAmount, categoryID)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления плановой суммы: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: категория id=%d не найдена", op, categoryID)
	}

	return nil
}

func (s *Storage) GetFunds(ctx context.Context, categoryID int64) ([]storage.Fund, error) {
	const op = "storage.mysql.GetFunds"

	query := `
		SELECT id, fund_category_id, name, comment, is_active
		FROM erp_funds
		WHERE fund_category_id = ? AND is_active = TRUE
		ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения фондов: %w", op, err)
	}
	defer rows.Close()

	var funds []storage.Fund
	for rows.Next() {
		var f storage.Fund
		if err := rows.Scan(&f.ID, &f.FundCategoryID, &f.Name, &f.Comment, &f.IsActive); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		funds = append(funds, f)
	}

	return funds, rows.Err()
}
