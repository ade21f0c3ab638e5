package cache

import "fmt"

// BalanceKey is the key of the cached account view served by the balance endpoint.
func BalanceKey(accountID int) string {
	return fmt.Sprintf("balance:%d", accountID)
}
