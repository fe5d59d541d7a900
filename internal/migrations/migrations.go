// Package migrations provides the embedded metadata schema lineage.
package migrations

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var files embed.FS

// Migration is one ordered schema step. Up advances the schema to
// Version; Down reverts it to Version-1.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Expected is the schema version the rest of the codebase is written
// against. Stores at any other version refuse normal operation.
const Expected = 3

var namePattern = regexp.MustCompile(`^(\d{3})_(.+)\.(up|down)\.sql$`)

// All returns the full lineage ordered by version. It panics on a
// malformed embedded set; that is a build defect, not a runtime
// condition.
func All() []Migration {
	entries, err := files.ReadDir("sql")
	if err != nil {
		panic(fmt.Sprintf("migrations: reading embedded sql: %v", err))
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		m := namePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			panic(fmt.Sprintf("migrations: unexpected file %q", entry.Name()))
		}
		version, _ := strconv.Atoi(m[1])
		body, err := files.ReadFile("sql/" + entry.Name())
		if err != nil {
			panic(fmt.Sprintf("migrations: reading %q: %v", entry.Name(), err))
		}

		mig := byVersion[version]
		if mig == nil {
			mig = &Migration{Version: version, Name: m[2]}
			byVersion[version] = mig
		}
		if m[3] == "up" {
			mig.Up = string(body)
		} else {
			mig.Down = string(body)
		}
	}

	all := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		all = append(all, *mig)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Version < all[j].Version })

	for i, mig := range all {
		if mig.Version != i+1 {
			panic(fmt.Sprintf("migrations: lineage gap at version %d", i+1))
		}
		if strings.TrimSpace(mig.Up) == "" || strings.TrimSpace(mig.Down) == "" {
			panic(fmt.Sprintf("migrations: version %d missing up or down script", mig.Version))
		}
	}
	return all
}
