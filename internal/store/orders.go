package store

import (
	"context"
	"fmt"

	"github.com/rainballs/jivot-bez-shum/internal/models"
)

// CreateOrderWithItem persists the order, its single line item and the
// already-computed totals in one transaction. A failure partway leaves
// nothing behind.
func (s *Store) CreateOrderWithItem(ctx context.Context, order *models.Order, item *models.OrderItem) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (full_name, email, phone, delivery_method, courier,
			address_line, city, postal_code, office_text, quantity,
			payment_method, paid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`,
		order.FullName, order.Email, order.Phone, order.DeliveryMethod, order.Courier,
		order.AddressLine, order.City, order.PostalCode, order.OfficeText, order.Quantity,
		order.PaymentMethod, order.Paid)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = int(id)
	item.OrderID = order.ID

	res, err = tx.ExecContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price_bgn, unit_price_eur)
		VALUES (?, ?, ?, ?, ?)
	`, item.OrderID, item.ProductID, item.Quantity, item.UnitPriceBGN, item.UnitPriceEUR)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	itemID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	item.ID = int(itemID)

	// Totals were recomputed by the caller after the item was attached;
	// persist them as part of the same unit.
	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET subtotal_bgn = ?, subtotal_eur = ?, shipping_bgn = ?, shipping_eur = ?,
			total_bgn = ?, total_eur = ?
		WHERE id = ?
	`,
		order.SubtotalBGN, order.SubtotalEUR, order.ShippingBGN, order.ShippingEUR,
		order.TotalBGN, order.TotalEUR, order.ID)
	if err != nil {
		return fmt.Errorf("persist totals: %w", err)
	}

	return tx.Commit()
}

const orderColumns = `id, full_name, email, phone, delivery_method, courier,
	address_line, city, postal_code, office_text, quantity,
	subtotal_bgn, subtotal_eur, shipping_bgn, shipping_eur, total_bgn, total_eur,
	payment_method, paid, created_at`

func (s *Store) GetOrderByID(ctx context.Context, id int) (*models.Order, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	var o models.Order
	err := row.Scan(&o.ID, &o.FullName, &o.Email, &o.Phone, &o.DeliveryMethod, &o.Courier,
		&o.AddressLine, &o.City, &o.PostalCode, &o.OfficeText, &o.Quantity,
		&o.SubtotalBGN, &o.SubtotalEUR, &o.ShippingBGN, &o.ShippingEUR, &o.TotalBGN, &o.TotalEUR,
		&o.PaymentMethod, &o.Paid, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) ItemsByOrder(ctx context.Context, orderID int) ([]models.OrderItem, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price_bgn, unit_price_eur
		FROM order_items WHERE order_id = ? ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPriceBGN, &it.UnitPriceEUR); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SetPaymentMethod records the buyer's choice as a single-row conditional
// update, so two racing writers cannot both claim the unset slot. It reports
// whether this call performed the transition; a row whose method is already
// set reports false.
func (s *Store) SetPaymentMethod(ctx context.Context, orderID int, method models.PaymentMethod) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE orders SET payment_method = ? WHERE id = ? AND payment_method = ''`, method, orderID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkOrderPaid flips paid to true as a single-row conditional update, so a
// replayed confirmation or a racing writer cannot apply the transition twice.
// It reports whether this call performed the transition; an unknown order id
// simply reports false.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID int) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `UPDATE orders SET paid = 1 WHERE id = ? AND paid = 0`, orderID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
