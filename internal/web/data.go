package web

// TrendingConversation is a placeholder entry for the trending screen.
// There is no real data source behind it yet.
type TrendingConversation struct {
	ID    string
	Title string
	Views int
	Saves int
	Team  string
}

// RoadmapFeature is a placeholder entry for the roadmap screen.
type RoadmapFeature struct {
	Name        string
	Status      string // "coming-soon", "planned", "exploring"
	Description string
}

var trendingSample = []TrendingConversation{
	{ID: "trending-1", Title: "Q4 Planning Strategy", Views: 342, Saves: 28, Team: "Product"},
	{ID: "trending-2", Title: "API Rate Limiting Discussion", Views: 289, Saves: 45, Team: "Engineering"},
	{ID: "trending-3", Title: "Customer Onboarding Flow", Views: 256, Saves: 19, Team: "Growth"},
	{ID: "trending-4", Title: "Brand Guidelines Update", Views: 198, Saves: 32, Team: "Design"},
	{ID: "trending-5", Title: "Incident Postmortem: Dec 5", Views: 187, Saves: 67, Team: "SRE"},
}

var roadmapFeatures = []RoadmapFeature{
	{Name: "Full-text Search", Status: "coming-soon", Description: "Search across all conversations"},
	{Name: "Team Workspaces", Status: "coming-soon", Description: "Organize by team or project"},
	{Name: "AI Auto-tagging", Status: "planned", Description: "Automatic categorization"},
	{Name: "Slack Integration", Status: "planned", Description: "Share directly to channels"},
	{Name: "Analytics Dashboard", Status: "planned", Description: "Usage insights and trends"},
	{Name: "Export to Notion/Confluence", Status: "exploring", Description: "Sync to your wiki"},
}
