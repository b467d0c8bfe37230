package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/nutribowl/storefront/internal/models"
)

const inventoryColumns = "id, sku, name, category, subcategory, unit, weight_grams, price, image, tags"

func scanInventoryItem(rows *sql.Rows) (*models.InventoryItem, error) {
	var (
		item        models.InventoryItem
		subcategory sql.NullString
		weight      sql.NullInt64
		tags        []byte
	)
	if err := rows.Scan(
		&item.ID, &item.SKU, &item.Name, &item.Category, &subcategory,
		&item.Unit, &weight, &item.Price, &item.Image, &tags,
	); err != nil {
		return nil, errors.Wrap(err, "scan inventory row")
	}
	item.Subcategory = stringPtr(subcategory)
	if weight.Valid {
		w := int(weight.Int64)
		item.WeightGrams = &w
	}
	item.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &item.Tags); err != nil {
			return nil, errors.Wrapf(err, "decode tags of %s", item.ID)
		}
	}
	return &item, nil
}

func queryInventory(ctx context.Context, q Querier, query string, args ...interface{}) ([]*models.InventoryItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query inventory")
	}
	defer rows.Close()

	items := []*models.InventoryItem{}
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate inventory")
	}
	return items, nil
}

// ListInventory returns the whole catalog ordered by name.
func ListInventory(ctx context.Context, q Querier) ([]*models.InventoryItem, error) {
	return queryInventory(ctx, q, "SELECT "+inventoryColumns+" FROM inventory ORDER BY name")
}

// InventoryByIDs loads the catalog rows for ids, keyed by id.
// Unknown ids are simply absent from the map.
func InventoryByIDs(ctx context.Context, q Querier, ids []string) (map[string]*models.InventoryItem, error) {
	byID := make(map[string]*models.InventoryItem, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := "SELECT " + inventoryColumns + " FROM inventory WHERE id IN (" + placeholders(len(ids)) + ")"

	items, err := queryInventory(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID, nil
}

func insertInventoryItem(ctx context.Context, q Querier, item *models.InventoryItem) error {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return errors.Wrap(err, "encode tags")
	}

	var weight sql.NullInt64
	if item.WeightGrams != nil {
		weight = sql.NullInt64{Int64: int64(*item.WeightGrams), Valid: true}
	}

	query := `
		INSERT INTO inventory (` + inventoryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = q.ExecContext(ctx, query,
		item.ID, item.SKU, item.Name, item.Category, nullString(item.Subcategory),
		item.Unit, weight, item.Price, item.Image, string(tagsJSON),
	)
	if err != nil {
		if isDuplicate(err) {
			return errors.Wrapf(ErrConflict, "inventory id %s", item.ID)
		}
		return errors.Wrapf(err, "insert inventory %s", item.ID)
	}
	return nil
}

// ReplaceInventory swaps the whole catalog for items in one transaction.
func ReplaceInventory(ctx context.Context, db *sql.DB, items []*models.InventoryItem) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin inventory replace")
	}
	defer tx.Rollback() // Safety net

	if _, err := tx.ExecContext(ctx, "DELETE FROM inventory"); err != nil {
		return 0, errors.Wrap(err, "clear inventory")
	}
	for _, item := range items {
		if err := insertInventoryItem(ctx, tx, item); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit inventory replace")
	}
	return len(items), nil
}

// UpdateInventoryItem applies the non-nil fields of upd to one catalog row.
func UpdateInventoryItem(ctx context.Context, q Querier, id string, upd *models.InventoryUpdate) error {
	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if upd.SKU != nil {
		add("sku", *upd.SKU)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Subcategory != nil {
		// An empty string clears the subcategory.
		add("subcategory", sql.NullString{String: *upd.Subcategory, Valid: *upd.Subcategory != ""})
	}
	if upd.Unit != nil {
		add("unit", *upd.Unit)
	}
	if upd.WeightGrams != nil {
		add("weight_grams", sql.NullInt64{Int64: int64(*upd.WeightGrams), Valid: *upd.WeightGrams > 0})
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.Image != nil {
		add("image", *upd.Image)
	}
	if upd.Tags != nil {
		tags := *upd.Tags
		if tags == nil {
			tags = []string{}
		}
		encoded, err := json.Marshal(tags)
		if err != nil {
			return errors.Wrap(err, "encode tags")
		}
		add("tags", string(encoded))
	}
	if len(sets) == 0 {
		return errors.New("no inventory fields to update")
	}

	args = append(args, id)
	query := "UPDATE inventory SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "update inventory %s", id)
	}
	return rowsAffected(res)
}

// DeleteInventoryItem removes one catalog row. Past order lines keep their snapshot.
func DeleteInventoryItem(ctx context.Context, q Querier, id string) error {
	res, err := q.ExecContext(ctx, "DELETE FROM inventory WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "delete inventory %s", id)
	}
	return rowsAffected(res)
}
