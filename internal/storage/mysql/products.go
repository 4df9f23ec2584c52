package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"erp-golang/internal/storage"
)

var ErrProductNotFound = errors.New("изделие не найдено")

func (s *Storage) GetProducts(ctx context.Context, category string) ([]storage.Product, error) {
	const op = "storage.mysql.GetProducts"

	query := `
		SELECT id, name, category, unit, comment, formula_enabled, formula_expression,
		       material_cost, labor_cost, overhead_cost, total_cost, selling_price, margin, is_active
		FROM erp_products
		WHERE is_active = TRUE`
	var args []interface{}

	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения изделий: %w", op, err)
	}
	defer rows.Close()

	var products []storage.Product
	for rows.Next() {
		var p storage.Product
		var formulaExpr sql.NullString
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Category, &p.Unit, &p.Comment, &p.FormulaEnabled, &formulaExpr,
			&p.MaterialCost, &p.LaborCost, &p.OverheadCost, &p.TotalCost, &p.SellingPrice, &p.Margin, &p.IsActive,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		p.FormulaExpression = formulaExpr.String
		products = append(products, p)
	}

	return products, rows.Err()
}

// GetProductWithUsages собирает изделие целиком: параметры, расход
// материалов и работ, фонды и компоненты. Это вход движка расчёта.
func (s *Storage) GetProductWithUsages(ctx context.Context, id int64) (*storage.Product, error) {
	const op = "storage.mysql.GetProductWithUsages"

	query := `
		SELECT id, name, category, unit, comment, formula_enabled, formula_expression,
		       material_cost, labor_cost, overhead_cost, total_cost, selling_price, margin, is_active
		FROM erp_products
		WHERE id = ?`

	var p storage.Product
	var formulaExpr sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Category, &p.Unit, &p.Comment, &p.FormulaEnabled, &formulaExpr,
		&p.MaterialCost, &p.LaborCost, &p.OverheadCost, &p.TotalCost, &p.SellingPrice, &p.Margin, &p.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w: id=%d", op, ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения изделия: %w", op, err)
	}
	p.FormulaExpression = formulaExpr.String

	if p.Parameters, err = s.getProductParameters(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.MaterialUsages, err = s.getMaterialUsages(ctx, "product_id", id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.WorkTypeUsages, err = s.getWorkTypeUsages(ctx, "product_id", id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.FundUsages, err = s.getFundUsages(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.Components, err = s.getComponents(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &p, nil
}

func (s *Storage) getProductParameters(ctx context.Context, productID int64) ([]storage.Parameter, error) {
	const op = "storage.mysql.getProductParameters"

	query := `
		SELECT id, name, label, type, min_value, max_value, options
		FROM erp_product_parameters
		WHERE product_id = ?
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var params []storage.Parameter
	for rows.Next() {
		var p storage.Parameter
		var options sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Label, &p.Type, &p.Min, &p.Max, &options); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		// Коды опций select хранятся JSON-массивом
		if options.Valid && options.String != "" {
			if err := json.Unmarshal([]byte(options.String), &p.Options); err != nil {
				return nil, fmt.Errorf("%s: options параметра %q: %w", op, p.Name, err)
			}
		}
		params = append(params, p)
	}

	return params, rows.Err()
}

// ownerColumn: "product_id" либо "component_id"
func (s *Storage) getMaterialUsages(ctx context.Context, ownerColumn string, ownerID int64) ([]storage.MaterialUsage, error) {
	const op = "storage.mysql.getMaterialUsages"

	query := fmt.Sprintf(`
		SELECT u.id, u.material_id, u.unit, u.unit_type, u.quantity, u.base_quantity,
		       u.calculation_formula, u.waste_factor,
		       %s
		FROM erp_material_usages u
		JOIN erp_materials m ON m.id = u.material_id
		WHERE u.%s = ?
		ORDER BY u.id`, materialColumns, ownerColumn)

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var usages []storage.MaterialUsage
	for rows.Next() {
		var u storage.MaterialUsage
		var m storage.MaterialItem
		var unit, calcFormula sql.NullString
		if err := rows.Scan(
			&u.ID, &u.MaterialID, &unit, &u.UnitType, &u.Quantity, &u.BaseQuantity,
			&calcFormula, &u.WasteFactor,
			&m.ID, &m.Articul, &m.Name, &m.Unit, &m.Price, &m.Currency,
			&m.BaseUnit, &m.CalculationUnit, &m.ConversionFactor, &m.IsActive,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		u.Unit = unit.String
		u.CalculationFormula = calcFormula.String
		u.Material = &m
		usages = append(usages, u)
	}

	return usages, rows.Err()
}

func (s *Storage) getWorkTypeUsages(ctx context.Context, ownerColumn string, ownerID int64) ([]storage.WorkTypeUsage, error) {
	const op = "storage.mysql.getWorkTypeUsages"

	query := fmt.Sprintf(`
		SELECT u.id, u.work_type_id, u.unit_type, u.time, u.base_time,
		       u.calculation_formula, u.sequence,
		       wt.id, wt.name, wt.hourly_rate, wt.standard_time, wt.department, wt.is_active
		FROM erp_work_type_usages u
		JOIN erp_work_types wt ON wt.id = u.work_type_id
		WHERE u.%s = ?
		ORDER BY u.sequence, u.id`, ownerColumn)

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var usages []storage.WorkTypeUsage
	for rows.Next() {
		var u storage.WorkTypeUsage
		var wt storage.WorkType
		var calcFormula sql.NullString
		if err := rows.Scan(
			&u.ID, &u.WorkTypeID, &u.UnitType, &u.Time, &u.BaseTime,
			&calcFormula, &u.Sequence,
			&wt.ID, &wt.Name, &wt.HourlyRate, &wt.StandardTime, &wt.Department, &wt.IsActive,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		u.CalculationFormula = calcFormula.String
		u.WorkType = &wt
		usages = append(usages, u)
	}

	return usages, rows.Err()
}

func (s *Storage) getFundUsages(ctx context.Context, productID int64) ([]storage.FundUsage, error) {
	const op = "storage.mysql.getFundUsages"

	query := `
		SELECT u.id, u.fund_id, f.fund_category_id, f.name, u.allocated_amount, u.percentage, u.per_unit
		FROM erp_fund_usages u
		JOIN erp_funds f ON f.id = u.fund_id
		WHERE u.product_id = ?
		ORDER BY u.id`

	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var usages []storage.FundUsage
	for rows.Next() {
		var u storage.FundUsage
		if err := rows.Scan(&u.ID, &u.FundID, &u.FundCategoryID, &u.Name, &u.AllocatedAmount, &u.Percentage, &u.PerUnit); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		usages = append(usages, u)
	}

	return usages, rows.Err()
}

func (s *Storage) getComponents(ctx context.Context, productID int64) ([]storage.Component, error) {
	const op = "storage.mysql.getComponents"

	query := `
		SELECT id, name, quantity, quantity_formula, include_condition
		FROM erp_product_components
		WHERE product_id = ?
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var components []storage.Component
	for rows.Next() {
		var c storage.Component
		var qtyFormula, includeCond sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Quantity, &qtyFormula, &includeCond); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		c.QuantityFormula = qtyFormula.String
		c.IncludeCondition = includeCond.String
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rows.Close()

	// Расход материалов и работ компонентов тянется отдельными запросами
	for i := range components {
		var err error
		if components[i].MaterialUsages, err = s.getMaterialUsages(ctx, "component_id", components[i].ID); err != nil {
			return nil, fmt.Errorf("%s: компонент id=%d: %w", op, components[i].ID, err)
		}
		if components[i].WorkTypeUsages, err = s.getWorkTypeUsages(ctx, "component_id", components[i].ID); err != nil {
			return nil, fmt.Errorf("%s: компонент id=%d: %w", op, components[i].ID, err)
		}
	}

	return components, nil
}

// GetProductIDsByFundCategory — изделия, фонды которых ссылаются на
// категорию. Используется пакетным пересчётом после смены плановой суммы.
func (s *Storage) GetProductIDsByFundCategory(ctx context.Context, categoryID int64) ([]int64, error) {
	const op = "storage.mysql.GetProductIDsByFundCategory"

	query := `
		SELECT DISTINCT u.product_id
		FROM erp_fund_usages u
		JOIN erp_funds f ON f.id = u.fund_id
		WHERE f.fund_category_id = ? AND u.percentage IS NOT NULL
		ORDER BY u.product_id`

	rows, err := s.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// UpdateProductCosts обновляет кэшированную себестоимость изделия.
func (s *Storage) UpdateProductCosts(ctx context.Context, update storage.ProductCostUpdate) error {
	const op = "storage.mysql.UpdateProductCosts"

	query := `
		UPDATE erp_products SET
			material_cost = ?, labor_cost = ?, overhead_cost = ?,
			total_cost = ?, selling_price = ?, margin = ?
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query,
		update.MaterialCost, update.LaborCost, update.OverheadCost,
		update.TotalCost, update.SellingPrice, update.Margin,
		update.ProductID,
	)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления себестоимости: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w: id=%d", op, ErrProductNotFound, update.ProductID)
	}

	return nil
}

// SaveProduct сохраняет изделие со всей номенклатурой одной транзакцией.
func (s *Storage) SaveProduct(ctx context.Context, p storage.Product) (int64, error) {
	const op = "storage.mysql.SaveProduct"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO erp_products (name, category, unit, comment, formula_enabled, formula_expression, is_active)
		VALUES (?, ?, ?, ?, ?, ?, TRUE)`,
		p.Name, p.Category, p.Unit, p.Comment, p.FormulaEnabled, nullString(p.FormulaExpression),
	)
	if err != nil {
		return 0, fmt.Errorf("%s: ошибка сохранения изделия: %w", op, err)
	}

	productID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.insertProductDetails(ctx, tx, productID, p); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", op, err)
	}

	return productID, nil
}

// UpdateProduct перезаписывает изделие: шапка обновляется, номенклатура
// удаляется и вставляется заново в одной транзакции.
func (s *Storage) UpdateProduct(ctx context.Context, p storage.Product) error {
	const op = "storage.mysql.UpdateProduct"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE erp_products SET
			name = ?, category = ?, unit = ?, comment = ?,
			formula_enabled = ?, formula_expression = ?, is_active = ?
		WHERE id = ?`,
		p.Name, p.Category, p.Unit, p.Comment,
		p.FormulaEnabled, nullString(p.FormulaExpression), p.IsActive,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления изделия: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		// Строка могла совпасть по значениям, проверяем существование
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM erp_products WHERE id = ?)`, p.ID).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w: id=%d", op, ErrProductNotFound, p.ID)
		}
	}

	componentIDs, err := productComponentIDs(ctx, tx, p.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	cleanup := []struct {
		query string
		args  []interface{}
	}{
		{`DELETE FROM erp_product_parameters WHERE product_id = ?`, []interface{}{p.ID}},
		{`DELETE FROM erp_material_usages WHERE product_id = ?`, []interface{}{p.ID}},
		{`DELETE FROM erp_work_type_usages WHERE product_id = ?`, []interface{}{p.ID}},
		{`DELETE FROM erp_fund_usages WHERE product_id = ?`, []interface{}{p.ID}},
	}
	if len(componentIDs) > 0 {
		in := placeholders(len(componentIDs))
		cleanup = append(cleanup,
			struct {
				query string
				args  []interface{}
			}{fmt.Sprintf(`DELETE FROM erp_material_usages WHERE component_id IN (%s)`, in), componentIDs},
			struct {
				query string
				args  []interface{}
			}{fmt.Sprintf(`DELETE FROM erp_work_type_usages WHERE component_id IN (%s)`, in), componentIDs},
		)
	}
	cleanup = append(cleanup, struct {
		query string
		args  []interface{}
	}{`DELETE FROM erp_product_components WHERE product_id = ?`, []interface{}{p.ID}})

	for _, c := range cleanup {
		if _, err := tx.ExecContext(ctx, c.query, c.args...); err != nil {
			return fmt.Errorf("%s: очистка номенклатуры: %w", op, err)
		}
	}

	if err := s.insertProductDetails(ctx, tx, p.ID, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func productComponentIDs(ctx context.Context, tx *sql.Tx, productID int64) ([]interface{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM erp_product_components WHERE product_id = ?`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []interface{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Storage) insertProductDetails(ctx context.Context, tx *sql.Tx, productID int64, p storage.Product) error {
	for _, param := range p.Parameters {
		var options interface{}
		if len(param.Options) > 0 {
			raw, err := json.Marshal(param.Options)
			if err != nil {
				return fmt.Errorf("options параметра %q: %w", param.Name, err)
			}
			options = string(raw)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO erp_product_parameters (product_id, name, label, type, min_value, max_value, options)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			productID, param.Name, param.Label, param.Type, param.Min, param.Max, options,
		); err != nil {
			return fmt.Errorf("параметр %q: %w", param.Name, err)
		}
	}

	if err := insertMaterialUsages(ctx, tx, "product_id", productID, p.MaterialUsages); err != nil {
		return err
	}
	if err := insertWorkTypeUsages(ctx, tx, "product_id", productID, p.WorkTypeUsages); err != nil {
		return err
	}

	for _, fund := range p.FundUsages {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO erp_fund_usages (product_id, fund_id, allocated_amount, percentage, per_unit)
			VALUES (?, ?, ?, ?, ?)`,
			productID, fund.FundID, fund.AllocatedAmount, fund.Percentage, fund.PerUnit,
		); err != nil {
			return fmt.Errorf("фонд id=%d: %w", fund.FundID, err)
		}
	}

	for _, comp := range p.Components {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO erp_product_components (product_id, name, quantity, quantity_formula, include_condition)
			VALUES (?, ?, ?, ?, ?)`,
			productID, comp.Name, comp.Quantity, nullString(comp.QuantityFormula), nullString(comp.IncludeCondition),
		)
		if err != nil {
			return fmt.Errorf("компонент %q: %w", comp.Name, err)
		}
		compID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("компонент %q: %w", comp.Name, err)
		}
		if err := insertMaterialUsages(ctx, tx, "component_id", compID, comp.MaterialUsages); err != nil {
			return fmt.Errorf("компонент %q: %w", comp.Name, err)
		}
		if err := insertWorkTypeUsages(ctx, tx, "component_id", compID, comp.WorkTypeUsages); err != nil {
			return fmt.Errorf("компонент %q: %w", comp.Name, err)
		}
	}

	return nil
}

func insertMaterialUsages(ctx context.Context, tx *sql.Tx, ownerColumn string, ownerID int64, usages []storage.MaterialUsage) error {
	query := fmt.Sprintf(`
		INSERT INTO erp_material_usages
			(%s, material_id, unit, unit_type, quantity, base_quantity, calculation_formula, waste_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, ownerColumn)

	for _, u := range usages {
		if _, err := tx.ExecContext(ctx, query,
			ownerID, u.MaterialID, nullString(u.Unit), u.UnitType,
			u.Quantity, u.BaseQuantity, nullString(u.CalculationFormula), u.WasteFactor,
		); err != nil {
			return fmt.Errorf("расход материала id=%d: %w", u.MaterialID, err)
		}
	}
	return nil
}

func insertWorkTypeUsages(ctx context.Context, tx *sql.Tx, ownerColumn string, ownerID int64, usages []storage.WorkTypeUsage) error {
	query := fmt.Sprintf(`
		INSERT INTO erp_work_type_usages
			(%s, work_type_id, unit_type, time, base_time, calculation_formula, sequence)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, ownerColumn)

	for _, u := range usages {
		if _, err := tx.ExecContext(ctx, query,
			ownerID, u.WorkTypeID, u.UnitType, u.Time, u.BaseTime,
			nullString(u.CalculationFormula), u.Sequence,
		); err != nil {
			return fmt.Errorf("расход работы id=%d: %w", u.WorkTypeID, err)
		}
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
