package profile

import (
	"context"
	"fmt"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/feast"
)

// AffinitySource 按用户读取口味向量（tag_id -> 0-100 分）。
// 离线批跑直接用快照里的口味表；在线侧可换成 feature store 实现。
type AffinitySource interface {
	Affinities(ctx context.Context, userID string) (map[int64]float64, error)
}

// FeastAffinitySource 从 Feast 在线存储读取口味向量。
// 特征名按 "<FeatureView>:<tag_text>" 组织，批跑物化、在线读取。
type FeastAffinitySource struct {
	Client      feast.Client
	FeatureView string
	Tags        []core.TagDefinition
}

// NewFeastAffinitySource 用静态标签目录构建特征名列表。
func NewFeastAffinitySource(client feast.Client, featureView string, tags []core.TagDefinition) *FeastAffinitySource {
	return &FeastAffinitySource{Client: client, FeatureView: featureView, Tags: tags}
}

// Affinities 实现 AffinitySource。缺失或非数值的特征值跳过，零分不保留。
func (s *FeastAffinitySource) Affinities(ctx context.Context, userID string) (map[int64]float64, error) {
	features := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		features[i] = fmt.Sprintf("%s:%s", s.FeatureView, t.Text)
	}
	resp, err := s.Client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
		Features:   features,
		EntityRows: []map[string]interface{}{{"user_id": userID}},
	})
	if err != nil {
		return nil, fmt.Errorf("feast affinities for %s: %w", userID, err)
	}
	if len(resp.FeatureVectors) == 0 {
		return nil, nil
	}

	values := resp.FeatureVectors[0].Values
	out := make(map[int64]float64)
	for i, t := range s.Tags {
		raw, ok := values[features[i]]
		if !ok {
			continue
		}
		score, ok := raw.(float64)
		if !ok || score == 0 {
			continue
		}
		out[t.ID] = score
	}
	return out, nil
}

// SnapshotAffinitySource 包装快照口味表，离线批跑用。
type SnapshotAffinitySource struct {
	Snapshot *core.Snapshot
}

func (s *SnapshotAffinitySource) Affinities(_ context.Context, userID string) (map[int64]float64, error) {
	return s.Snapshot.AffinityMap(userID), nil
}

var (
	_ AffinitySource = (*FeastAffinitySource)(nil)
	_ AffinitySource = (*SnapshotAffinitySource)(nil)
)
