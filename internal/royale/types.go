package royale

// Wire types mirror the game API's JSON. They never leave this package;
// parse.go validates them into tournament domain types.

type clanDto struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

type memberDto struct {
	Tag   string   `json:"tag"`
	Name  string   `json:"name"`
	Score int      `json:"score"`
	Rank  int      `json:"rank"`
	Clan  *clanDto `json:"clan,omitempty"`
}

type tournamentDto struct {
	Tag                 string      `json:"tag"`
	Type                string      `json:"type"`
	Status              string      `json:"status"`
	CreatorTag          string      `json:"creatorTag"`
	Name                string      `json:"name"`
	Description         string      `json:"description"`
	LevelCap            int         `json:"levelCap"`
	Capacity            int         `json:"capacity"`
	MaxCapacity         int         `json:"maxCapacity"`
	PreparationDuration int         `json:"preparationDuration"`
	Duration            int         `json:"duration"`
	CreatedTime         string      `json:"createdTime"`
	StartedTime         string      `json:"startedTime"`
	EndedTime           string      `json:"endedTime"`
	MembersList         []memberDto `json:"membersList"`
}

type battleParticipantDto struct {
	Tag    string   `json:"tag"`
	Name   string   `json:"name"`
	Crowns int      `json:"crowns"`
	Clan   *clanDto `json:"clan,omitempty"`
}

type battleDto struct {
	Type       string                 `json:"type"`
	BattleTime string                 `json:"battleTime"`
	Team       []battleParticipantDto `json:"team"`
	Opponent   []battleParticipantDto `json:"opponent"`
}

type apiErrorDto struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
