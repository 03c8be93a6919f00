package shared

// DeleteMode describes what deleting an entity does to its storage row
type DeleteMode string

const (
	// DeleteSoft flips the entity's isActive flag and keeps the row
	DeleteSoft DeleteMode = "SOFT"
	// DeleteHard removes the row together with its owned children
	DeleteHard DeleteMode = "HARD"
	// DeleteForbidden means the entity is retired through its state machine instead
	DeleteForbidden DeleteMode = "FORBIDDEN"
)

// Entity kinds known to the lifecycle policy
const (
	EntityProduct          = "product"
	EntityProductVariant   = "product_variant"
	EntityInventoryReceipt = "inventory_receipt"
	EntityOrder            = "order"
	EntityPayment          = "payment"
	EntityRefund           = "refund"
	EntityExpense          = "expense"
)

// LifecyclePolicy is the deletion rule for one entity kind
type LifecyclePolicy struct {
	Entity string
	Mode   DeleteMode
	// Children lists owned entity kinds removed before the parent on hard delete
	Children []string
}

var lifecyclePolicies = map[string]LifecyclePolicy{
	EntityProduct:          {Entity: EntityProduct, Mode: DeleteSoft, Children: []string{EntityProductVariant}},
	EntityProductVariant:   {Entity: EntityProductVariant, Mode: DeleteSoft},
	EntityInventoryReceipt: {Entity: EntityInventoryReceipt, Mode: DeleteHard, Children: []string{"inventory_receipt_item"}},
	EntityOrder:            {Entity: EntityOrder, Mode: DeleteForbidden},
	EntityPayment:          {Entity: EntityPayment, Mode: DeleteHard},
	EntityRefund:           {Entity: EntityRefund, Mode: DeleteHard, Children: []string{"refund_item"}},
	EntityExpense:          {Entity: EntityExpense, Mode: DeleteHard},
}

// LifecyclePolicyFor returns the deletion policy for an entity kind.
// Unknown kinds are forbidden from deletion.
func LifecyclePolicyFor(entity string) LifecyclePolicy {
	if p, ok := lifecyclePolicies[entity]; ok {
		return p
	}
	return LifecyclePolicy{Entity: entity, Mode: DeleteForbidden}
}

// EnsureDeletable returns ErrInvalidState when the entity kind cannot be deleted
func EnsureDeletable(entity string) error {
	if LifecyclePolicyFor(entity).Mode == DeleteForbidden {
		return NewInvalidStateError(entity + " cannot be deleted")
	}
	return nil
}
