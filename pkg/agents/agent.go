package agents

import "sort"

// Agent is a named backend conversational endpoint. The set of agents is
// owned by the server; the client treats it as read-only.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Group is one category bucket of agents, for sidebar display.
type Group struct {
	Category string
	Agents   []Agent
}

const uncategorized = "Uncategorized"

// GroupByCategory buckets agents by category with a stable category order.
// Agents without a category land in an "Uncategorized" bucket.
func GroupByCategory(list []Agent) []Group {
	byCategory := map[string][]Agent{}
	order := []string{}
	for _, agent := range list {
		category := agent.Category
		if category == "" {
			category = uncategorized
		}
		if _, ok := byCategory[category]; !ok {
			order = append(order, category)
		}
		byCategory[category] = append(byCategory[category], agent)
	}
	sort.Strings(order)
	groups := make([]Group, 0, len(order))
	for _, category := range order {
		groups = append(groups, Group{Category: category, Agents: byCategory[category]})
	}
	return groups
}
