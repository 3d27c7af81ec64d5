package cleaner

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReadClusterList builds the list of cluster names the run is restricted to.
//
// The commandLine argument wins when non-empty; otherwise the list is read
// from the configured file, one entry per line (commas work as separators in
// both sources). Entries that do not parse as UUIDs are dropped and counted
// so the summary can report them. An empty result with no source configured
// is fine: it means the run covers all clusters.
func ReadClusterList(commandLine, filePath string, logger zerolog.Logger) (ClusterList, int, error) {
	var raw []string

	switch {
	case commandLine != "":
		raw = splitEntries(commandLine)
	case filePath != "":
		content, err := os.ReadFile(filePath)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read cluster list file: %w", err)
		}
		raw = splitEntries(string(content))
	default:
		return nil, 0, nil
	}

	clusters := make(ClusterList, 0, len(raw))
	improper := 0

	for _, entry := range raw {
		if _, err := uuid.Parse(entry); err != nil {
			improper++
			logger.Error().Err(err).Str("cluster", entry).Msg("Improper cluster name")
			continue
		}
		clusters = append(clusters, ClusterName(entry))
	}

	logger.Info().
		Int("proper", len(clusters)).
		Int("improper", improper).
		Msg("Cluster list read")

	return clusters, improper, nil
}

// splitEntries splits on newlines and commas and trims the pieces, dropping
// blanks.
func splitEntries(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})

	entries := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field != "" {
			entries = append(entries, field)
		}
	}
	return entries
}
