package provider

import (
	"context"

	"github.com/guohuiyuan/music-stream/model"
)

// CatalogSource 按歌名和歌手查找直链, 失败时返回 Success=false 的结果而不是 error
type CatalogSource interface {
	Lookup(ctx context.Context, q model.TrackQuery) model.StreamResult
}

// StreamSource 按视频 ID 在某个代理网络上解析音频流
type StreamSource interface {
	Resolve(ctx context.Context, videoID string) model.StreamResult
}

// InstanceSource 提供当前可用的代理实例列表
type InstanceSource interface {
	Instances(ctx context.Context) model.InstanceSet
}
