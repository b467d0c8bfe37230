package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nutribowl/storefront/internal/models"
	"github.com/nutribowl/storefront/internal/store"
)

//
// --- Inventory Handlers ---
//

// normalizeInventory fills derived fields and rejects rows the catalog cannot hold.
// Items without an id get one slugged from the name; items without a SKU
// reuse the upper-cased id.
func normalizeInventory(items []*models.InventoryItem) error {
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		if item == nil {
			return errors.Errorf("item %d is empty", i)
		}
		item.Name = strings.TrimSpace(item.Name)
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			item.ID = slug.Make(item.Name)
		}
		if item.ID == "" {
			return errors.Errorf("item %d needs an id or a name", i)
		}
		if seen[item.ID] {
			return errors.Errorf("duplicate id %q", item.ID)
		}
		seen[item.ID] = true

		if item.Name == "" {
			return errors.Errorf("item %q needs a name", item.ID)
		}
		if item.SKU == "" {
			item.SKU = strings.ToUpper(item.ID)
		}
		if !models.IsValidCategory(item.Category) {
			return errors.Errorf("item %q has unknown category %q", item.ID, item.Category)
		}
		if item.Subcategory != nil {
			if *item.Subcategory == "" {
				item.Subcategory = nil
			} else if !models.IsValidSubcategory(*item.Subcategory) {
				return errors.Errorf("item %q has unknown subcategory %q", item.ID, *item.Subcategory)
			}
		}
		if item.Price < 0 {
			return errors.Errorf("item %q has a negative price", item.ID)
		}
		if item.WeightGrams != nil && *item.WeightGrams <= 0 {
			item.WeightGrams = nil
		}
		if item.Tags == nil {
			item.Tags = []string{}
		}
	}
	return nil
}

// decodeInventorySeed parses a YAML (or JSON) list of catalog items.
func decodeInventorySeed(raw []byte) ([]*models.InventoryItem, error) {
	var items []*models.InventoryItem
	if err := yaml.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrap(err, "decode inventory seed")
	}
	if len(items) == 0 {
		return nil, errors.New("inventory seed is empty")
	}
	if err := normalizeInventory(items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListInventory is the handler for GET /api/inventory
func (h *Handlers) ListInventory(c *gin.Context) {
	items, err := store.ListInventory(c.Request.Context(), h.DB)
	if err != nil {
		h.serverError(c, "Failed to load inventory", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ReplaceInventory is the handler for PUT /api/inventory (admin)
func (h *Handlers) ReplaceInventory(c *gin.Context) {
	// 1. --- Bind JSON Array ---
	var items []*models.InventoryItem
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Inventory must be an array"})
		return
	}

	// 2. --- Validate Rows ---
	if err := normalizeInventory(items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. --- Replace in One Transaction ---
	h.replaceInventory(c, items, "Failed to update inventory")
}

// ResetInventory is the handler for POST /api/inventory/reset (admin)
// It restores the catalog from the seed file.
func (h *Handlers) ResetInventory(c *gin.Context) {
	// 1. --- Read the Seed File ---
	raw, err := os.ReadFile(h.Config.Inventory.SeedPath)
	if err != nil {
		h.serverError(c, "Failed to reset inventory", err)
		return
	}

	// 2. --- Decode & Validate ---
	items, err := decodeInventorySeed(raw)
	if err != nil {
		h.Logger.Warn("inventory seed rejected", zap.String("path", h.Config.Inventory.SeedPath), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Seed inventory is invalid"})
		return
	}

	// 3. --- Replace in One Transaction ---
	h.replaceInventory(c, items, "Failed to reset inventory")
}

func (h *Handlers) replaceInventory(c *gin.Context, items []*models.InventoryItem, failure string) {
	count, err := store.ReplaceInventory(c.Request.Context(), h.DB, items)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Duplicate inventory id"})
			return
		}
		h.serverError(c, failure, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": count})
}

// UpdateInventoryItem is the handler for PATCH /api/inventory/:id (admin)
func (h *Handlers) UpdateInventoryItem(c *gin.Context) {
	itemID := c.Param("id")

	// 1. --- Bind JSON ---
	var upd models.InventoryUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// 2. --- Validate the Allow-Listed Fields ---
	if upd.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updates provided"})
		return
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
		return
	}
	if upd.Category != nil && !models.IsValidCategory(*upd.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}
	if upd.Subcategory != nil && !models.IsValidSubcategory(*upd.Subcategory) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subcategory"})
		return
	}
	if upd.Price != nil && *upd.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price cannot be negative"})
		return
	}

	// 3. --- Execute Update ---
	if err := store.UpdateInventoryItem(c.Request.Context(), h.DB, itemID, &upd); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		h.serverError(c, "Failed to update item", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DeleteInventoryItem is the handler for DELETE /api/inventory/:id (admin)
func (h *Handlers) DeleteInventoryItem(c *gin.Context) {
	if err := store.DeleteInventoryItem(c.Request.Context(), h.DB, c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		h.serverError(c, "Failed to delete item", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
