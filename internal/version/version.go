// Package version checks GitHub for a newer BotLooter release. The check
// is purely informational: any failure downgrades to a warning and the run
// proceeds.
package version

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	// Current is the version of this build.
	Current = "0.3.9"

	RepositoryURL = "https://github.com/SmallTailTeam/BotLooter"

	latestReleaseURL = "https://api.github.com/repos/SmallTailTeam/BotLooter/releases/latest"
)

type release struct {
	TagName string `json:"tag_name"`
}

// CheckLatest compares the running version against the latest GitHub
// release and logs the result.
func CheckLatest(ctx context.Context, client *resty.Client) {
	var latest release

	res, err := client.R().
		SetContext(ctx).
		SetResult(&latest).
		Get(latestReleaseURL)
	if err != nil || res.IsError() || latest.TagName == "" {
		log.Warn().Msg("failed to fetch the latest BotLooter version")
		log.Info().Str("version", Current).Str("releases", RepositoryURL).Msg("you can check the latest version on GitHub")
		return
	}

	switch compare(Current, latest.TagName) {
	case 0:
		log.Info().Str("version", Current).Str("repository", RepositoryURL).Msg("BotLooter is up to date")
	case -1:
		log.Warn().
			Str("version", Current).
			Str("latest", latest.TagName).
			Str("download", RepositoryURL).
			Msg("you are using an outdated version of BotLooter")
	case 1:
		log.Info().
			Str("version", Current).
			Str("latest", latest.TagName).
			Msg("it looks like you are using a pre-release version of BotLooter")
	}
}

// compare orders two dotted version strings: -1 when a < b, 0 when equal,
// 1 when a > b. Non-numeric segments count as zero, which also covers
// unparsable tags.
func compare(a, b string) int {
	as := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bs := strings.Split(strings.TrimPrefix(b, "v"), ".")

	for i := 0; i < len(as) || i < len(bs); i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}

	return 0
}

// String returns a printable "name version" banner.
func String() string {
	return fmt.Sprintf("BotLooter %s", Current)
}
