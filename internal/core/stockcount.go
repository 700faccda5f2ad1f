package core

import (
	"context"
	"fmt"
)

// StockCountItem is one counted line of a stock count.
type StockCountItem struct {
	ItemID   string
	Category string
	Name     string
	Unit     string
	Qty      float64
}

// StockCountItemFromRecord reads an item from a loosely typed map.
func StockCountItemFromRecord(r Record) StockCountItem {
	return StockCountItem{
		ItemID:   Stringify(r["itemId"]),
		Category: Stringify(r["category"]),
		Name:     Stringify(r["name"]),
		Unit:     Stringify(r["unit"]),
		Qty:      toNumber(r["qty"]),
	}
}

// StockCountSubmission is a store's count for one date.
type StockCountSubmission struct {
	StoreID     string
	Date        string
	SubmittedBy string
	Items       []StockCountItem
}

// StockCountResult summarizes a stored submission.
type StockCountResult struct {
	Count     int      `json:"count"`
	WeekNo    string   `json:"weekNo"`
	Updated   int      `json:"updated"`
	Unmatched []string `json:"unmatched"`
}

// SubmitStockCount stores one StockCounts row per item, all sharing the
// derived ISO week, one submission time and the submitter, then overwrites
// qty on the matching StoreStock row of each item. Items without an
// on-hand row are reported as unmatched; none are created.
func (s *Service) SubmitStockCount(ctx context.Context, sub StockCountSubmission) (StockCountResult, error) {
	if sub.StoreID == "" {
		return StockCountResult{}, fmt.Errorf("%w: storeId is required", ErrInvalidParams)
	}
	if sub.Date == "" {
		return StockCountResult{}, fmt.Errorf("%w: date is required", ErrInvalidParams)
	}
	if len(sub.Items) == 0 {
		return StockCountResult{}, fmt.Errorf("%w: items must not be empty", ErrInvalidParams)
	}
	date, err := ParseDate(sub.Date)
	if err != nil {
		return StockCountResult{}, err
	}
	countSchema, err := s.reg.Lookup(TableStockCounts)
	if err != nil {
		return StockCountResult{}, err
	}
	if _, err := s.reg.Lookup(TableStoreStock); err != nil {
		return StockCountResult{}, err
	}

	res := StockCountResult{WeekNo: WeekNumber(date), Unmatched: []string{}}
	err = s.run(ctx, "submitStockCount", func() error {
		submittedAt := s.timestamp()
		lines := make([]Record, len(sub.Items))
		for i, item := range sub.Items {
			lines[i] = Record{
				"id":          s.codec.NewID(countSchema),
				"storeId":     sub.StoreID,
				"weekNo":      res.WeekNo,
				"countDate":   sub.Date,
				"itemId":      item.ItemID,
				"category":    item.Category,
				"name":        item.Name,
				"unit":        item.Unit,
				"qty":         item.Qty,
				"submittedAt": submittedAt,
				"submittedBy": sub.SubmittedBy,
			}
		}
		if err := s.store.AppendAll(TableStockCounts, lines); err != nil {
			return fmt.Errorf("append stock counts: %w", err)
		}
		res.Count = len(lines)

		updated, unmatched, err := s.syncOnHand(sub)
		if err != nil {
			return fmt.Errorf("update on-hand stock: %w", err)
		}
		res.Updated = updated
		res.Unmatched = append(res.Unmatched, unmatched...)
		return nil
	})
	if err != nil {
		return StockCountResult{}, err
	}
	return res, nil
}

// syncOnHand overwrites qty on the first StoreStock row matching each
// item's store and item id.
func (s *Service) syncOnHand(sub StockCountSubmission) (updated int, unmatched []string, err error) {
	t, err := s.store.open(TableStoreStock, false)
	if err != nil {
		return 0, nil, err
	}
	if t.sheet == nil {
		for _, item := range sub.Items {
			unmatched = append(unmatched, item.ItemID)
		}
		return 0, unmatched, nil
	}
	rows, err := s.store.rows(t)
	if err != nil {
		return 0, nil, err
	}

	byItem := make(map[string]int, len(rows))
	for _, r := range rows {
		if Stringify(r.rec["storeId"]) != sub.StoreID {
			continue
		}
		itemID := Stringify(r.rec["itemId"])
		if _, dup := byItem[itemID]; !dup {
			byItem[itemID] = r.row
		}
	}

	qtyCol := t.mapping[t.schema.Index("qty")] + 1
	for _, item := range sub.Items {
		row, ok := byItem[item.ItemID]
		if !ok || item.ItemID == "" {
			unmatched = append(unmatched, item.ItemID)
			continue
		}
		if err := t.sheet.SetValues(row, qtyCol, [][]any{{item.Qty}}); err != nil {
			return updated, unmatched, err
		}
		updated++
	}
	return updated, unmatched, nil
}
