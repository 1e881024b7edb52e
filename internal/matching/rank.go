package matching

import (
	"sort"

	directorydomain "leadrouter_backend/internal/directory/domain"
	leadsdomain "leadrouter_backend/internal/leads/domain"
)

// Rank runs the full pure pipeline: filter the snapshot, score the survivors,
// and return them best-first. Ties break on longer tenure, then on agent ID
// so the ordering is total and stable across runs.
func Rank(lead leadsdomain.Lead, agents []directorydomain.Agent, params ScoreParams) ([]Score, []Rejection) {
	eligible, rejections := Filter(lead, agents, FilterParams{
		Capacities:    params.Capacities,
		RecencyWindow: params.RecencyWindow,
		Now:           params.Now,
	})

	scores := make([]Score, 0, len(eligible))
	joined := make(map[string]int64, len(eligible))
	for _, agent := range eligible {
		scores = append(scores, ScoreAgent(lead, agent, params))
		joined[agent.ID.String()] = agent.JoinedAt.UnixNano()
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		if joined[scores[i].AgentID] != joined[scores[j].AgentID] {
			return joined[scores[i].AgentID] < joined[scores[j].AgentID]
		}
		return scores[i].AgentID < scores[j].AgentID
	})

	return scores, rejections
}
