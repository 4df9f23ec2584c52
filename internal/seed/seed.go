package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Demo наполняет пустую базу демонстрационным каталогом: материалы,
// работы, фонды и пара изделий. Повторный запуск ничего не меняет.
func Demo(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM erp_products`).Scan(&count); err != nil {
		return fmt.Errorf("check products: %w", err)
	}
	if count > 0 {
		log.Info("демо-данные уже загружены, пропускаем")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	exec := func(query string, args ...interface{}) (int64, error) {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}

	// Материалы
	ldspID, err := exec(`
		INSERT INTO erp_materials (articul, name, unit, price, currency, is_active)
		VALUES ('LDSP-16', 'ЛДСП 16мм', 'm2', 85, 'RUB', TRUE)`)
	if err != nil {
		return fmt.Errorf("seed materials: %w", err)
	}
	bannerID, err := exec(`
		INSERT INTO erp_materials (articul, name, unit, price, currency, is_active)
		VALUES ('BNR-440', 'Ткань баннерная 440г', 'm2', 120, 'RUB', TRUE)`)
	if err != nil {
		return fmt.Errorf("seed materials: %w", err)
	}

	// Виды работ
	assemblyID, err := exec(`
		INSERT INTO erp_work_types (name, hourly_rate, department, is_active)
		VALUES ('Сборка', 400, 'Цех мебели', TRUE)`)
	if err != nil {
		return fmt.Errorf("seed work types: %w", err)
	}
	printID, err := exec(`
		INSERT INTO erp_work_types (name, hourly_rate, department, is_active)
		VALUES ('Печать', 600, 'Цех рекламы', TRUE)`)
	if err != nil {
		return fmt.Errorf("seed work types: %w", err)
	}

	// Фонды
	categoryID, err := exec(`
		INSERT INTO erp_fund_categories (name, planned_amount, year, is_active)
		VALUES ('Общепроизводственные расходы', 50000, YEAR(CURDATE()), TRUE)`)
	if err != nil {
		return fmt.Errorf("seed fund categories: %w", err)
	}
	fundID, err := exec(`
		INSERT INTO erp_funds (fund_category_id, name, is_active)
		VALUES (?, 'Аренда цеха', TRUE)`, categoryID)
	if err != nil {
		return fmt.Errorf("seed funds: %w", err)
	}

	// Изделие без формулы: шкаф
	cabinetID, err := exec(`
		INSERT INTO erp_products (name, category, unit, formula_enabled, is_active)
		VALUES ('Шкаф офисный', 'Мебель', 'шт', FALSE, TRUE)`)
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if _, err := exec(`
		INSERT INTO erp_material_usages (product_id, material_id, unit_type, quantity, waste_factor)
		VALUES (?, ?, 'fixed', 2, 1.1)`, cabinetID, ldspID); err != nil {
		return fmt.Errorf("seed usages: %w", err)
	}
	if _, err := exec(`
		INSERT INTO erp_work_type_usages (product_id, work_type_id, unit_type, time, sequence)
		VALUES (?, ?, 'fixed', 2, 1)`, cabinetID, assemblyID); err != nil {
		return fmt.Errorf("seed usages: %w", err)
	}
	if _, err := exec(`
		INSERT INTO erp_fund_usages (product_id, fund_id, allocated_amount, percentage, per_unit)
		VALUES (?, ?, 0, 10, FALSE)`, cabinetID, fundID); err != nil {
		return fmt.Errorf("seed usages: %w", err)
	}

	// Изделие с формулой и параметрами: баннер произвольного размера
	bannerProductID, err := exec(`
		INSERT INTO erp_products (name, category, unit, formula_enabled, formula_expression, is_active)
		VALUES ('Баннер', 'Реклама', 'шт', TRUE, 'width * height / 1000000', TRUE)`)
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if _, err := exec(`
		INSERT INTO erp_product_parameters (product_id, name, label, type, min_value, max_value)
		VALUES (?, 'width', 'Ширина, мм', 'number', 100, 10000)`, bannerProductID); err != nil {
		return fmt.Errorf("seed parameters: %w", err)
	}
	if _, err := exec(`
		INSERT INTO erp_product_parameters (product_id, name, label, type, min_value, max_value)
		VALUES (?, 'height', 'Высота, мм', 'number', 100, 10000)`, bannerProductID); err != nil {
		return fmt.Errorf("seed parameters: %w", err)
	}
	if _, err := exec(`
		INSERT INTO erp_material_usages (product_id, material_id, unit_type, quantity, waste_factor)
		VALUES (?, ?, 'fixed', 1, 1.05)`, bannerProductID, bannerID); err != nil {
		return fmt.Errorf("seed usages: %w", err)
	}
	if _, err := exec(`
		INSERT INTO erp_work_type_usages (product_id, work_type_id, unit_type, time, sequence)
		VALUES (?, ?, 'fixed', 0.5, 1)`, bannerProductID, printID); err != nil {
		return fmt.Errorf("seed usages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}

	log.Info("демо-данные загружены")
	return nil
}
