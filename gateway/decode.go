package gateway

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"

	"github.com/penwyp/ClawDeck/errors"
	"github.com/penwyp/ClawDeck/models"
)

func decodeInto[T any](group models.EntityGroup, op string, raw []byte, v *T) error {
	if !gjson.ValidBytes(raw) {
		return errors.Malformed(string(group), op, fmt.Errorf("invalid JSON"))
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return errors.Malformed(string(group), op, err)
	}
	return nil
}

// DecodeSessions decodes a sessions.list payload
func DecodeSessions(raw []byte) (*models.SessionList, error) {
	var list models.SessionList
	if !gjson.GetBytes(raw, "sessions").IsArray() {
		return nil, errors.Malformed(string(models.GroupSessions), models.MethodSessionsList, fmt.Errorf("missing sessions array"))
	}
	if err := decodeInto(models.GroupSessions, models.MethodSessionsList, raw, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DecodeAgents accepts either a bare array or an {"agents": [...]} object
func DecodeAgents(raw []byte) ([]models.AgentSnapshot, error) {
	return decodeList[models.AgentSnapshot](models.GroupAgents, models.MethodAgentsList, raw, "agents")
}

// DecodeCronJobs accepts either a bare array or a {"jobs": [...]} object
func DecodeCronJobs(raw []byte) ([]models.CronJobSnapshot, error) {
	return decodeList[models.CronJobSnapshot](models.GroupCron, models.MethodCronList, raw, "jobs")
}

// DecodeCronRuns decodes a cron.runs payload, bare array or {"runs": [...]}
func DecodeCronRuns(jobID string, raw []byte) (*models.CronRunList, error) {
	runs, err := decodeList[models.CronRun](models.GroupCron, models.MethodCronRuns, raw, "runs")
	if err != nil {
		return nil, err
	}
	return &models.CronRunList{JobID: jobID, Runs: runs}, nil
}

func decodeList[T any](group models.EntityGroup, op string, raw []byte, field string) ([]T, error) {
	parsed := gjson.ParseBytes(raw)
	var body []byte
	switch {
	case parsed.IsArray():
		body = raw
	case parsed.IsObject() && parsed.Get(field).IsArray():
		body = []byte(parsed.Get(field).Raw)
	default:
		return nil, errors.Malformed(string(group), op, fmt.Errorf("expected array or %q field", field))
	}

	items := []T{}
	if err := decodeInto(group, op, body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DecodeCostSummary decodes a usage.cost payload
func DecodeCostSummary(raw []byte) (*models.CostSummary, error) {
	if !gjson.GetBytes(raw, "totals").IsObject() {
		return nil, errors.Malformed(string(models.GroupCost), models.MethodUsageCost, fmt.Errorf("missing totals"))
	}
	var summary models.CostSummary
	if err := decodeInto(models.GroupCost, models.MethodUsageCost, raw, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// DecodeSessionsUsage decodes a sessions.usage payload
func DecodeSessionsUsage(raw []byte) (*models.SessionsUsageResponse, error) {
	if !gjson.GetBytes(raw, "totals").IsObject() {
		return nil, errors.Malformed(string(models.GroupUsage), models.MethodSessionsUsage, fmt.Errorf("missing totals"))
	}
	var usage models.SessionsUsageResponse
	if err := decodeInto(models.GroupUsage, models.MethodSessionsUsage, raw, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}
