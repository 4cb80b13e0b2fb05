package store

import "database/sql"

// InitSchema creates all tables if they do not exist yet. Idempotent, run on
// startup.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'customer',
	is_active     BOOLEAN NOT NULL DEFAULT true,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS categories (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	icon_url    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price       INTEGER NOT NULL,
	inventory   INTEGER NOT NULL DEFAULT 0 CHECK (inventory >= 0),
	category_id TEXT REFERENCES categories(id),
	image_url   TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT true,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS addresses (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL REFERENCES users(id),
	label         TEXT NOT NULL DEFAULT '',
	address_line1 TEXT NOT NULL,
	address_line2 TEXT NOT NULL DEFAULT '',
	city          TEXT NOT NULL,
	state         TEXT NOT NULL,
	zip_code      TEXT NOT NULL,
	country       TEXT NOT NULL DEFAULT 'India',
	is_default    BOOLEAN NOT NULL DEFAULT false,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS carts (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cart_items (
	id             TEXT PRIMARY KEY,
	cart_id        TEXT NOT NULL REFERENCES carts(id),
	product_id     TEXT NOT NULL REFERENCES products(id),
	quantity       INTEGER NOT NULL CHECK (quantity > 0),
	price_snapshot INTEGER NOT NULL,
	variant        TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (cart_id, product_id, variant)
);

CREATE TABLE IF NOT EXISTS orders (
	id                    TEXT PRIMARY KEY,
	user_id               TEXT NOT NULL REFERENCES users(id),
	status                TEXT NOT NULL DEFAULT 'pending',
	payment_status        TEXT NOT NULL DEFAULT 'pending',
	total_amount          INTEGER NOT NULL,
	delivery_fee          INTEGER NOT NULL DEFAULT 0,
	address_snapshot      JSONB NOT NULL,
	delivery_instructions TEXT NOT NULL DEFAULT '',
	metadata              JSONB NOT NULL DEFAULT '{}',
	estimated_delivery    TIMESTAMPTZ,
	delivered_at          TIMESTAMPTZ,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_items (
	id             TEXT PRIMARY KEY,
	order_id       TEXT NOT NULL REFERENCES orders(id),
	product_id     TEXT NOT NULL REFERENCES products(id),
	quantity       INTEGER NOT NULL,
	price_snapshot INTEGER NOT NULL,
	variant        TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS wishlists (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	product_id TEXT NOT NULL REFERENCES products(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS reviews (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	product_id TEXT NOT NULL REFERENCES products(id),
	rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
	review     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS banners (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	subtitle   TEXT NOT NULL DEFAULT '',
	image_url  TEXT NOT NULL,
	link_url   TEXT NOT NULL DEFAULT '',
	is_active  BOOLEAN NOT NULL DEFAULT true,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	type       TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	read       BOOLEAN NOT NULL DEFAULT false,
	metadata   JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_carts_user ON carts(user_id);
CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items(cart_id);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
`
