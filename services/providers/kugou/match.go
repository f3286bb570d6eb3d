package kugou

import "strings"

// nameScore awards exact for an equal name, partial when one contains the other
func nameScore(candidate, want string, exact, partial int) int {
	candidate = strings.ToLower(candidate)
	want = strings.ToLower(want)
	switch {
	case candidate == want:
		return exact
	case strings.Contains(candidate, want) || strings.Contains(want, candidate):
		return partial
	}
	return 0
}

func durationScore(gotMs, wantMs int) int {
	if gotMs <= 0 || wantMs <= 0 {
		return 0
	}
	switch diff := abs(gotMs - wantMs); {
	case diff < 3000:
		return 20
	case diff < 5000:
		return 10
	case diff < 10000:
		return 5
	}
	return 0
}

func normalize(score, maxScore int) float64 {
	return min(max(float64(score)/float64(maxScore), 0), 1)
}

// SelectBestCandidate picks the highest scoring lyric candidate.
// The returned score is normalized to 0.0-1.0.
func SelectBestCandidate(candidates []LyricsCandidate, song, artist string, durationMs int) (*LyricsCandidate, float64) {
	// 60 (upstream) + 20 synced + 20 song + 20 artist + 20 duration + 5 official
	const maxScore = 145

	var best *LyricsCandidate
	bestScore := -1

	for i := range candidates {
		c := &candidates[i]
		score := c.Score

		if c.KRCType == 1 {
			score += 20
		}
		score += nameScore(c.Song, song, 20, 10)
		if artist != "" {
			score += nameScore(c.Singer, artist, 20, 10)
		}
		score += durationScore(c.Duration, durationMs)
		if strings.Contains(c.ProductFrom, "官方") {
			score += 5
		}

		if score > bestScore {
			bestScore = score
			best = c
		}
	}

	if best == nil {
		return nil, 0
	}
	return best, normalize(bestScore, maxScore)
}

// SelectBestSong picks the song whose hash is used for the lyrics search
func SelectBestSong(songs []SongInfo, song, artist string, durationMs int) (*SongInfo, float64) {
	// 30 song + 25 artist + 20 duration + 3 quality
	const maxScore = 78

	var best *SongInfo
	bestScore := -1

	for i := range songs {
		s := &songs[i]
		score := nameScore(s.SongName, song, 30, 15)
		if artist != "" {
			score += nameScore(s.SingerName, artist, 25, 10)
		}
		score += durationScore(s.Duration*1000, durationMs)
		if s.SQHash != "" {
			score += 2
		}
		if s.Hash320 != "" {
			score++
		}

		if score > bestScore {
			bestScore = score
			best = s
		}
	}

	if best == nil {
		return nil, 0
	}
	return best, normalize(bestScore, maxScore)
}

// filterSongsByDuration keeps songs within deltaMs of durationMs
func filterSongsByDuration(songs []SongInfo, durationMs, deltaMs int) []SongInfo {
	var filtered []SongInfo
	for _, s := range songs {
		if abs(s.Duration*1000-durationMs) <= deltaMs {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
