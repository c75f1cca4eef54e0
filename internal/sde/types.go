package sde

// BlueprintRecord is one manufacturing recipe from the reference data.
// Records are immutable once produced: neither the catalog nor the
// economics engine ever writes back into reference data.
type BlueprintRecord struct {
	TypeID          int32  `json:"type_id"`
	Name            string `json:"name"`
	GroupID         int32  `json:"group_id"`
	GroupName       string `json:"group_name"`
	Description     string `json:"description"`
	ProductTypeID   int32  `json:"product_type_id"`  // 0 when the product link is unresolved
	ProductQuantity int32  `json:"product_quantity"` // units produced per run, >= 1
	ProductionTime  int32  `json:"production_time"`  // base seconds, before TE
}

// MaterialRequirement is one input line of a blueprint's manufacturing
// activity. Quantity is the raw per-run amount before material efficiency.
type MaterialRequirement struct {
	TypeID   int32  `json:"type_id"`
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
}
