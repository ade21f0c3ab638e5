package storage

const (
	insertAccount          = "INSERT INTO accounts(account_type, balance, created_at, modified_at) VALUES($1,$2,$3,$4) RETURNING id;"
	selectAccountByID      = "SELECT id, account_type, balance, created_at, modified_at FROM accounts WHERE id=$1;"
	selectAccountForUpdate = "SELECT id, account_type, balance, created_at, modified_at FROM accounts WHERE id=$1 FOR UPDATE;"
	updateBalance          = "UPDATE accounts SET balance=$1, modified_at=$2 WHERE id=$3;"

	insertCustomer           = "INSERT INTO customers(account_id, first_name, last_name, email, created_at, modified_at) VALUES($1,$2,$3,$4,$5,$6) RETURNING id;"
	selectCustomerByID       = "SELECT id, account_id, first_name, last_name, email, created_at, modified_at FROM customers WHERE id=$1;"
	selectCustomers          = "SELECT id, account_id, first_name, last_name, email, created_at, modified_at FROM customers ORDER BY id;"
	selectCustomersByAccount = "SELECT id, account_id, first_name, last_name, email, created_at, modified_at FROM customers WHERE account_id=$1 ORDER BY id;"
	updateCustomer           = "UPDATE customers SET first_name=$1, last_name=$2, email=$3, modified_at=$4 WHERE id=$5 RETURNING id, account_id, first_name, last_name, email, created_at, modified_at;"

	insertTransfer = "INSERT INTO transfers(from_id, to_id, amount, created_at) VALUES($1,$2,$3,$4) RETURNING id;"
)
