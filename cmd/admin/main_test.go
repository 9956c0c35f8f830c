package main

import (
	"io"
	"testing"
)

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	if root.Use != "admin" {
		t.Errorf("Use = %q, want admin", root.Use)
	}

	for _, name := range []string{"migrate", "sync-item", "notify-sync", "remove-item"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestSyncItemFlags(t *testing.T) {
	cmd := newSyncItemCmd()

	tests := []struct {
		flag string
		want string
	}{
		{"all", "false"},
		{"workers", "4"},
		{"timeout", "30m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := cmd.Flags().Lookup(tt.flag)
			if f == nil {
				t.Fatalf("flag %q missing", tt.flag)
			}
			if f.DefValue != tt.want {
				t.Errorf("default = %q, want %q", f.DefValue, tt.want)
			}
		})
	}
}

func TestSyncItemRejectsBadInvocation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"nothing", []string{}},
		{"ids and --all", []string{"--all", "item-1"}},
		{"zero workers", []string{"--workers=0", "item-1"}},
		{"negative workers", []string{"--all", "--workers=-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newSyncItemCmd()
			cmd.SetArgs(tt.args)
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)

			if err := cmd.Execute(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestArgValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"remove-item without id", []string{}, true},
		{"remove-item with two ids", []string{"a", "b"}, true},
		{"remove-item with one id", []string{"a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newRemoveItemCmd().Args(nil, tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("Args() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := newNotifySyncCmd().Args(nil, nil); err == nil {
		t.Error("notify-sync should require at least one item id")
	}
}
