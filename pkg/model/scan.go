package model

// ScannedItem is one accumulated entry of a scan session. A session holds
// at most one entry per item; repeated scans bump Quantity.
type ScannedItem struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
	ItemName string `json:"itemName"`
}
