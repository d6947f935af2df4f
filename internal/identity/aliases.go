package identity

// NBA team canonical ids (abbreviations) keyed by full name.
var nbaTeams = map[string]string{
	"Atlanta Hawks":          "ATL",
	"Boston Celtics":         "BOS",
	"Brooklyn Nets":          "BKN",
	"Charlotte Hornets":      "CHA",
	"Chicago Bulls":          "CHI",
	"Cleveland Cavaliers":    "CLE",
	"Dallas Mavericks":       "DAL",
	"Denver Nuggets":         "DEN",
	"Detroit Pistons":        "DET",
	"Golden State Warriors":  "GSW",
	"Houston Rockets":        "HOU",
	"Indiana Pacers":         "IND",
	"Los Angeles Clippers":   "LAC",
	"Los Angeles Lakers":     "LAL",
	"Memphis Grizzlies":      "MEM",
	"Miami Heat":             "MIA",
	"Milwaukee Bucks":        "MIL",
	"Minnesota Timberwolves": "MIN",
	"New Orleans Pelicans":   "NOP",
	"New York Knicks":        "NYK",
	"Oklahoma City Thunder":  "OKC",
	"Orlando Magic":          "ORL",
	"Philadelphia 76ers":     "PHI",
	"Phoenix Suns":           "PHX",
	"Portland Trail Blazers": "POR",
	"Sacramento Kings":       "SAC",
	"San Antonio Spurs":      "SAS",
	"Toronto Raptors":        "TOR",
	"Utah Jazz":              "UTA",
	"Washington Wizards":     "WAS",
}

// Common variants bookmakers use that are not the official full name.
// Nicknames shared by no other team are safe aliases; fragments like "LA"
// alone are intentionally absent (they match both LA teams).
var nbaExtraAliases = map[string]string{
	"LA Lakers":     "LAL",
	"L.A. Lakers":   "LAL",
	"LA Clippers":   "LAC",
	"L.A. Clippers": "LAC",
	"Sixers":        "PHI",
	"Blazers":       "POR",
	"Trail Blazers": "POR",
	"Cavs":          "CLE",
	"Wolves":        "MIN",
	"NY Knicks":     "NYK",
	"GS Warriors":   "GSW",
	"OKC Thunder":   "OKC",
	"NO Pelicans":   "NOP",
	"SA Spurs":      "SAS",
}
