package postgres

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	price         NUMERIC(14,2) NOT NULL CHECK (price >= 0),
	stock         INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	min_stock     INTEGER NOT NULL DEFAULT 0,
	non_inventory BOOLEAN NOT NULL DEFAULT false,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sales (
	id             TEXT PRIMARY KEY,
	day            DATE NOT NULL,
	cashier        TEXT NOT NULL,
	lines          JSONB NOT NULL,
	subtotal       NUMERIC(14,2) NOT NULL,
	total_discount NUMERIC(14,2) NOT NULL,
	tax_rate       NUMERIC(7,3) NOT NULL,
	tax            NUMERIC(14,2) NOT NULL,
	cgst           NUMERIC(14,2) NOT NULL,
	sgst           NUMERIC(14,2) NOT NULL,
	grand_total    NUMERIC(14,2) NOT NULL CHECK (grand_total >= 0),
	method         TEXT NOT NULL,
	amount_paid    NUMERIC(14,2) NOT NULL,
	change_given   NUMERIC(14,2) NOT NULL,
	tenders        JSONB NOT NULL,
	customer       TEXT,
	return_refs    JSONB NOT NULL DEFAULT '[]'::jsonb,
	version        INTEGER NOT NULL DEFAULT 1,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sales_day_idx ON sales (day, created_at);

CREATE TABLE IF NOT EXISTS dues (
	id              TEXT PRIMARY KEY,
	sale_id         TEXT NOT NULL REFERENCES sales (id),
	day             DATE NOT NULL,
	customer        TEXT NOT NULL,
	total           NUMERIC(14,2) NOT NULL,
	upfront_paid    NUMERIC(14,2) NOT NULL,
	upfront_tender  TEXT,
	upfront_tenders JSONB NOT NULL,
	balance         NUMERIC(14,2) NOT NULL CHECK (balance >= 0),
	settled         BOOLEAN NOT NULL DEFAULT false,
	version         INTEGER NOT NULL DEFAULT 1,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS dues_open_idx ON dues (settled, created_at);

CREATE TABLE IF NOT EXISTS due_payments (
	id         TEXT PRIMARY KEY,
	due_id     TEXT NOT NULL REFERENCES dues (id),
	day        DATE NOT NULL,
	amount     NUMERIC(14,2) NOT NULL CHECK (amount > 0),
	mode       TEXT NOT NULL CHECK (mode IN ('cash', 'upi')),
	cashier    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS due_payments_due_idx ON due_payments (due_id, created_at);
CREATE INDEX IF NOT EXISTS due_payments_day_idx ON due_payments (day);

CREATE TABLE IF NOT EXISTS returns (
	id           TEXT PRIMARY KEY,
	sale_id      TEXT NOT NULL REFERENCES sales (id),
	day          DATE NOT NULL,
	reason       TEXT NOT NULL,
	items        JSONB NOT NULL,
	refund       NUMERIC(14,2) NOT NULL,
	tender       TEXT NOT NULL,
	processed_by TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS returns_sale_idx ON returns (sale_id);
CREATE INDEX IF NOT EXISTS returns_day_idx ON returns (day);

CREATE TABLE IF NOT EXISTS expenses (
	id         TEXT PRIMARY KEY,
	day        DATE NOT NULL,
	amount     NUMERIC(14,2) NOT NULL CHECK (amount > 0),
	reason     TEXT NOT NULL,
	cashier    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS expenses_day_idx ON expenses (day);

CREATE TABLE IF NOT EXISTS drawer_states (
	day          DATE PRIMARY KEY,
	status       TEXT NOT NULL,
	opening_cash NUMERIC(14,2) NOT NULL CHECK (opening_cash >= 0),
	current_cash NUMERIC(14,2) NOT NULL,
	opened_by    TEXT,
	opened_at    TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS tender_totals (
	day        DATE PRIMARY KEY REFERENCES drawer_states (day),
	cash       NUMERIC(14,2) NOT NULL,
	upi        NUMERIC(14,2) NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	username   TEXT PRIMARY KEY,
	password   TEXT NOT NULL,
	role       TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates any missing tables. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}
