package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"erp-golang/internal/storage"
)

var ErrOrderNotFound = errors.New("заказ не найден")

func (s *Storage) GetOrders(ctx context.Context, status string) ([]storage.Order, error) {
	const op = "storage.mysql.GetOrders"

	query := `
		SELECT id, order_num, customer, status, comment, total, created_at, updated_at
		FROM erp_orders`
	var args []interface{}

	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения заказов: %w", op, err)
	}
	defer rows.Close()

	var orders []storage.Order
	for rows.Next() {
		var o storage.Order
		if err := rows.Scan(&o.ID, &o.OrderNum, &o.Customer, &o.Status, &o.Comment, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (s *Storage) GetOrderDetails(ctx context.Context, id int64) (*storage.Order, error) {
	const op = "storage.mysql.GetOrderDetails"

	var o storage.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, order_num, customer, status, comment, total, created_at, updated_at
		FROM erp_orders
		WHERE id = ?`, id).
		Scan(&o.ID, &o.OrderNum, &o.Customer, &o.Status, &o.Comment, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w: id=%d", op, ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения заказа: %w", op, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, position, name, unit, quantity,
		       unit_cost, selling_price, vat_rate, vat_amount, price_with_vat, line_total, warnings
		FROM erp_order_items
		WHERE order_id = ?
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения позиций заказа: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item storage.OrderItem
		var warnings sql.NullString
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Position, &item.Name, &item.Unit, &item.Quantity,
			&item.UnitCost, &item.SellingPrice, &item.VATRate, &item.VATAmount, &item.PriceWithVAT, &item.LineTotal,
			&warnings,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		if warnings.Valid && warnings.String != "" {
			if err := json.Unmarshal([]byte(warnings.String), &item.Warnings); err != nil {
				return nil, fmt.Errorf("%s: warnings позиции id=%d: %w", op, item.ID, err)
			}
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &o, nil
}

// SaveOrderWithItems сохраняет заказ и позиции одной транзакцией.
// Позиции приходят уже рассчитанными, со снимками названий и цен.
func (s *Storage) SaveOrderWithItems(ctx context.Context, order storage.Order) (int64, error) {
	const op = "storage.mysql.SaveOrderWithItems"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var total float64
	for _, item := range order.Items {
		total += item.LineTotal
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO erp_orders (order_num, customer, status, comment, total, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())`,
		order.OrderNum, order.Customer, order.Status, order.Comment, total,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: ошибка сохранения заказа: %w", op, err)
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for i, item := range order.Items {
		var warnings interface{}
		if len(item.Warnings) > 0 {
			raw, err := json.Marshal(item.Warnings)
			if err != nil {
				return 0, fmt.Errorf("%s: warnings позиции %d: %w", op, i+1, err)
			}
			warnings = string(raw)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO erp_order_items
				(order_id, product_id, position, name, unit, quantity,
				 unit_cost, selling_price, vat_rate, vat_amount, price_with_vat, line_total, warnings)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			orderID, item.ProductID, i+1, item.Name, item.Unit, item.Quantity,
			item.UnitCost, item.SellingPrice, item.VATRate, item.VATAmount, item.PriceWithVAT, item.LineTotal,
			warnings,
		); err != nil {
			return 0, fmt.Errorf("%s: позиция %d: %w", op, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", op, err)
	}

	return orderID, nil
}

func (s *Storage) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	const op = "storage.mysql.UpdateOrderStatus"

	res, err := s.db.ExecContext(ctx, `
		UPDATE erp_orders SET status = ?, updated_at = NOW() WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления статуса: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w: id=%d", op, ErrOrderNotFound, id)
	}

	return nil
}
