package models

// Team is an NBA franchise as identified by the league stats feeds.
type Team struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// NBATeams lists the thirty franchises with their league team IDs.
var NBATeams = []Team{
	{ID: "1610612737", FullName: "Atlanta Hawks"},
	{ID: "1610612738", FullName: "Boston Celtics"},
	{ID: "1610612751", FullName: "Brooklyn Nets"},
	{ID: "1610612766", FullName: "Charlotte Hornets"},
	{ID: "1610612741", FullName: "Chicago Bulls"},
	{ID: "1610612739", FullName: "Cleveland Cavaliers"},
	{ID: "1610612742", FullName: "Dallas Mavericks"},
	{ID: "1610612743", FullName: "Denver Nuggets"},
	{ID: "1610612765", FullName: "Detroit Pistons"},
	{ID: "1610612744", FullName: "Golden State Warriors"},
	{ID: "1610612745", FullName: "Houston Rockets"},
	{ID: "1610612754", FullName: "Indiana Pacers"},
	{ID: "1610612746", FullName: "Los Angeles Clippers"},
	{ID: "1610612747", FullName: "Los Angeles Lakers"},
	{ID: "1610612763", FullName: "Memphis Grizzlies"},
	{ID: "1610612748", FullName: "Miami Heat"},
	{ID: "1610612749", FullName: "Milwaukee Bucks"},
	{ID: "1610612750", FullName: "Minnesota Timberwolves"},
	{ID: "1610612740", FullName: "New Orleans Pelicans"},
	{ID: "1610612752", FullName: "New York Knicks"},
	{ID: "1610612760", FullName: "Oklahoma City Thunder"},
	{ID: "1610612753", FullName: "Orlando Magic"},
	{ID: "1610612755", FullName: "Philadelphia 76ers"},
	{ID: "1610612756", FullName: "Phoenix Suns"},
	{ID: "1610612757", FullName: "Portland Trail Blazers"},
	{ID: "1610612758", FullName: "Sacramento Kings"},
	{ID: "1610612759", FullName: "San Antonio Spurs"},
	{ID: "1610612761", FullName: "Toronto Raptors"},
	{ID: "1610612762", FullName: "Utah Jazz"},
	{ID: "1610612764", FullName: "Washington Wizards"},
}

// TeamAliases are alternate display names sportsbooks use.
var TeamAliases = map[string]string{
	"LA Clippers": "1610612746",
}
