package config

import "testing"

func TestDefaultsApplyWithoutConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", "does/not/exist.toml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RAG.ChunkSize != 512 || cfg.RAG.ChunkOverlap != 64 || cfg.RAG.TopK != 3 {
		t.Errorf("unexpected rag defaults: %+v", cfg.RAG)
	}
	if cfg.Session.RateLimit != 10 || cfg.Session.RateWindowSeconds != 1 {
		t.Errorf("unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.HTTPAddr() != "0.0.0.0:8080" {
		t.Errorf("unexpected http addr %q", cfg.HTTPAddr())
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "does/not/exist.toml")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("RAG_CHUNK_SIZE", "256")
	t.Setenv("SESSION_RATE_LIMIT", "5")
	t.Setenv("MYSQL_PASSWORD", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.App.Port != 9000 {
		t.Errorf("APP_PORT override ignored, got %d", cfg.App.Port)
	}
	if cfg.RAG.ChunkSize != 256 {
		t.Errorf("RAG_CHUNK_SIZE override ignored, got %d", cfg.RAG.ChunkSize)
	}
	if cfg.Session.RateLimit != 5 {
		t.Errorf("SESSION_RATE_LIMIT override ignored, got %d", cfg.Session.RateLimit)
	}
	if got := cfg.MySQLDSN(); got != "root:secret@tcp(127.0.0.1:3306)/pdfqa?parseTime=true&loc=Local&charset=utf8mb4" {
		t.Errorf("unexpected dsn %q", got)
	}
}

func TestMalformedIntFallsBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "does/not/exist.toml")
	t.Setenv("RAG_TOP_K", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RAG.TopK != 3 {
		t.Errorf("expected fallback top_k 3, got %d", cfg.RAG.TopK)
	}
}
