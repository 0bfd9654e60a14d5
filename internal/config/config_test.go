package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestValidateRejectsZeroThreads(t *testing.T) {
	c := Default()
	c.Threads = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for threads < 1")
	}
}

func TestValidateRejectsTinyMaxNodes(t *testing.T) {
	c := Default()
	c.MaxNodes = 1
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for max-nodes < 2")
	}
}

func TestValidateRejectsUnknownSearchMode(t *testing.T) {
	c := Default()
	c.Search = SearchMode("astar")
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unknown search mode")
	}
}

func TestValidateRejectsUnknownCacheMode(t *testing.T) {
	c := Default()
	c.Cache = CacheMode("bogus")
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unknown cache mode")
	}
}

func TestValidateRequiresSwapPathForFile(t *testing.T) {
	c := Default()
	c.Swap = SwapFile
	c.SwapPath = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected error when file swap mode has no path")
	}
}

func TestValidateRequiresSwapPathForMmap(t *testing.T) {
	c := Default()
	c.Swap = SwapMmap
	c.SwapPath = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected error when mmap swap mode has no path")
	}
}

func TestValidateAcceptsFileSwapWithPath(t *testing.T) {
	c := Default()
	c.Swap = SwapFile
	c.SwapPath = "/tmp/kwirksearch.swap"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
