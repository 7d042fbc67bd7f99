package xid

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	PrefixSale       = "sale"
	PrefixDue        = "due"
	PrefixDuePayment = "duepay"
	PrefixReturn     = "ret"
	PrefixExpense    = "exp"
)

// New returns prefix-uuidv7. Version 7 ids sort by creation time, so record
// listings ordered by id follow the order operations were committed.
func New(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
	}
	return fmt.Sprintf("%s-%s", prefix, id.String())
}
