package identity

import "github.com/yourusername/hoopscore/internal/models"

// Team is a curated canonical team.
type Team struct {
	ID         models.TeamID
	Name       string
	Conference string
}

// Catalogue holds the curated canonical teams. Names are stored in the same
// normalized form produced by Normalize.
var Catalogue = []Team{
	// ACC
	{"duke", "duke", "ACC"},
	{"north-carolina", "north carolina", "ACC"},
	{"nc-state", "nc state", "ACC"},
	{"virginia", "virginia", "ACC"},
	{"virginia-tech", "virginia tech", "ACC"},
	{"clemson", "clemson", "ACC"},
	{"louisville", "louisville", "ACC"},
	{"syracuse", "syracuse", "ACC"},
	{"wake-forest", "wake forest", "ACC"},
	{"pittsburgh", "pittsburgh", "ACC"},
	{"miami-fl", "miami fl", "ACC"},
	{"florida-state", "florida state", "ACC"},
	{"boston-college", "boston college", "ACC"},
	{"notre-dame", "notre dame", "ACC"},
	{"georgia-tech", "georgia tech", "ACC"},
	// Big Ten
	{"michigan-state", "michigan state", "Big Ten"},
	{"michigan", "michigan", "Big Ten"},
	{"purdue", "purdue", "Big Ten"},
	{"illinois", "illinois", "Big Ten"},
	{"indiana", "indiana", "Big Ten"},
	{"wisconsin", "wisconsin", "Big Ten"},
	{"ohio-state", "ohio state", "Big Ten"},
	{"iowa", "iowa", "Big Ten"},
	{"maryland", "maryland", "Big Ten"},
	{"rutgers", "rutgers", "Big Ten"},
	{"ucla", "ucla", "Big Ten"},
	{"usc", "usc", "Big Ten"},
	// Big 12
	{"kansas", "kansas", "Big 12"},
	{"kansas-state", "kansas state", "Big 12"},
	{"baylor", "baylor", "Big 12"},
	{"houston", "houston", "Big 12"},
	{"iowa-state", "iowa state", "Big 12"},
	{"texas-tech", "texas tech", "Big 12"},
	{"arizona", "arizona", "Big 12"},
	{"byu", "byu", "Big 12"},
	{"cincinnati", "cincinnati", "Big 12"},
	// SEC
	{"kentucky", "kentucky", "SEC"},
	{"tennessee", "tennessee", "SEC"},
	{"alabama", "alabama", "SEC"},
	{"auburn", "auburn", "SEC"},
	{"florida", "florida", "SEC"},
	{"arkansas", "arkansas", "SEC"},
	{"texas-am", "texas a and m", "SEC"},
	{"texas", "texas", "SEC"},
	{"lsu", "lsu", "SEC"},
	{"ole-miss", "ole miss", "SEC"},
	{"mississippi-state", "mississippi state", "SEC"},
	// Big East
	{"uconn", "uconn", "Big East"},
	{"villanova", "villanova", "Big East"},
	{"marquette", "marquette", "Big East"},
	{"creighton", "creighton", "Big East"},
	{"st-johns", "saint johns", "Big East"},
	{"xavier", "xavier", "Big East"},
	{"providence", "providence", "Big East"},
	{"seton-hall", "seton hall", "Big East"},
	{"georgetown", "georgetown", "Big East"},
	// West Coast and mid-majors
	{"gonzaga", "gonzaga", "WCC"},
	{"saint-marys", "saint marys", "WCC"},
	{"san-diego-state", "san diego state", "Mountain West"},
	{"miami-oh", "miami oh", "MAC"},
	{"saint-josephs", "saint josephs", "Atlantic 10"},
	{"dayton", "dayton", "Atlantic 10"},
	{"vcu", "vcu", "Atlantic 10"},
	{"william-and-mary", "william and mary", "CAA"},
}

// Aliases maps normalized alternate spellings to canonical team ids.
var Aliases = map[string]models.TeamID{
	"unc":                        "north-carolina",
	"n carolina":                 "north-carolina",
	"north carolina chapel hill": "north-carolina",
	"nc st":                      "nc-state",
	"north carolina state":       "nc-state",
	"ncsu":                       "nc-state",
	"n c state":                  "nc-state",

	"uva":              "virginia",
	"va tech":          "virginia-tech",
	"vt":               "virginia-tech",
	"pitt":             "pittsburgh",
	"miami":            "miami-fl",
	"miami florida":    "miami-fl",
	"miami hurricanes": "miami-fl",

	"fsu":        "florida-state",
	"fla state":  "florida-state",
	"bc":         "boston-college",
	"ga tech":    "georgia-tech",
	"msu":        "michigan-state",
	"mich state": "michigan-state",

	"tosu":    "ohio-state",
	"ku":      "kansas",
	"k state": "kansas-state",
	"isu":     "iowa-state",
	"ttu":     "texas-tech",

	"brigham young": "byu",
	"uk":            "kentucky",
	"bama":          "alabama",
	"texas am":      "texas-am",
	"tamu":          "texas-am",
	"texas a m":     "texas-am",

	"louisiana state": "lsu",
	"mississippi":     "ole-miss",
	"miss state":      "mississippi-state",
	"mississippi st":  "mississippi-state",
	"connecticut":     "uconn",

	"nova":           "villanova",
	"st johns ny":    "st-johns",
	"saint johns ny": "st-johns",
	"st johns":       "st-johns",
	"hall":           "seton-hall",

	"zags":           "gonzaga",
	"st marys":       "saint-marys",
	"saint marys ca": "saint-marys",
	"st marys ca":    "saint-marys",
	"sdsu":           "san-diego-state",

	"miami ohio":            "miami-oh",
	"miami redhawks":        "miami-oh",
	"st josephs":            "saint-josephs",
	"saint josephs pa":      "saint-josephs",
	"virginia commonwealth": "vcu",

	"william mary":           "william-and-mary",
	"w and m":                "william-and-mary",
	"southern california":    "usc",
	"southern cal":           "usc",
	"california los angeles": "ucla",
}

// Mascots lists known nickname suffixes. Matching is longest first, so
// multi-word mascots win over their last word.
var Mascots = []string{
	"blue devils", "tar heels", "wolfpack", "cavaliers", "hokies", "tigers", "cardinals",
	"orange", "demon deacons", "panthers", "hurricanes", "seminoles", "eagles",
	"fighting irish", "yellow jackets", "spartans", "wolverines", "boilermakers",
	"fighting illini", "hoosiers", "badgers", "buckeyes", "hawkeyes", "terrapins",
	"scarlet knights", "bruins", "trojans", "jayhawks", "wildcats", "bears", "cougars",
	"cyclones", "red raiders", "bearcats", "volunteers", "crimson tide", "gators",
	"razorbacks", "aggies", "longhorns", "rebels", "bulldogs", "huskies", "golden eagles",
	"bluejays", "red storm", "musketeers", "friars", "pirates", "hoyas", "gaels", "aztecs",
	"redhawks", "hawks", "flyers", "rams", "tribe", "blue raiders", "mean green", "owls",
	"golden gophers", "cornhuskers", "ducks", "beavers", "utes", "buffaloes", "sun devils",
	"gamecocks", "commodores", "mountaineers", "horned frogs", "knights", "lobos", "broncos",
	"rainbow warriors", "anteaters", "49ers", "bison", "lions", "retrievers", "paladins",
}
