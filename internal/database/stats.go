package database

import (
	"context"
	"time"

	"nyapix/internal/metrics"
)

type mediaCount struct {
	Kind  string `db:"kind"`
	Count int    `db:"n"`
}

// GetStats counts catalogue rows for the metrics collector.
func (d *Database) GetStats(ctx context.Context) (metrics.Stats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_stats", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats metrics.Stats

	var byKind []mediaCount
	if err = d.db.SelectContext(ctx, &byKind, "SELECT kind, COUNT(*) AS n FROM media GROUP BY kind"); err != nil {
		return stats, err
	}
	withMedia := 0
	for _, c := range byKind {
		switch c.Kind {
		case "image":
			stats.Images = c.Count
		case "video":
			stats.Videos = c.Count
		case "audio":
			stats.Audio = c.Count
		}
		withMedia += c.Count
	}

	var contents int
	if err = d.db.GetContext(ctx, &contents, "SELECT COUNT(*) FROM contents"); err != nil {
		return stats, err
	}
	stats.WithoutMedia = contents - withMedia

	counts := []struct {
		dest  *int
		query string
	}{
		{&stats.Tags, "SELECT COUNT(*) FROM tags"},
		{&stats.Characters, "SELECT COUNT(*) FROM characters"},
		{&stats.Authors, "SELECT COUNT(*) FROM authors"},
		{&stats.Albums, "SELECT COUNT(*) FROM albums"},
		{&stats.Users, "SELECT COUNT(*) FROM users"},
	}
	for _, c := range counts {
		if err = d.db.GetContext(ctx, c.dest, c.query); err != nil {
			return stats, err
		}
	}

	stats.OpenConnections = d.db.Stats().OpenConnections
	return stats, nil
}
