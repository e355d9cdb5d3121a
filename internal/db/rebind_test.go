package db

import "testing"

func TestRebind(t *testing.T) {
	got := Rebind(`UPDATE offers SET status = ? WHERE id = ? AND note <> 'why?'`)
	want := `UPDATE offers SET status = $1 WHERE id = $2 AND note <> 'why?'`
	if got != want {
		t.Fatalf("Rebind() = %q, want %q", got, want)
	}
}

func TestConnRebindMySQLUntouched(t *testing.T) {
	c := &Conn{Dialect: MySQL}
	q := `SELECT id FROM offers WHERE id = ?`
	if got := c.Rebind(q); got != q {
		t.Fatalf("mysql query rewritten: %q", got)
	}
}

func TestLikeEscapes(t *testing.T) {
	if got := Like(" Malmö_C% "); got != `%malmö\_c\%%` {
		t.Fatalf("Like() = %q", got)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(3); got != "?, ?, ?" {
		t.Fatalf("Placeholders(3) = %q", got)
	}
	if got := Placeholders(0); got != "" {
		t.Fatalf("Placeholders(0) = %q", got)
	}
}

func TestStripPgBouncer(t *testing.T) {
	dsn, pooled := stripPgBouncer("postgres://u:p@pooler.supabase.com:6543/postgres?pgbouncer=true&sslmode=require")
	if !pooled {
		t.Fatalf("expected pooled")
	}
	if dsn != "postgres://u:p@pooler.supabase.com:6543/postgres?sslmode=require" {
		t.Fatalf("dsn = %q", dsn)
	}
	if _, pooled := stripPgBouncer("postgres://u:p@localhost/db"); pooled {
		t.Fatalf("plain dsn reported pooled")
	}
}
