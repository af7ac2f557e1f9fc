package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 阶段执行对 LLM 的唯一依赖
type ChatModelFactory interface {
	// Resolve 返回 provider 对应的 ChatModel 与实际生效的 provider 名。
	// provider 为空时解析为默认 provider；返回的名字用于用量记账与追踪标签。
	Resolve(ctx context.Context, provider string) (model.BaseChatModel, string, error)
}
