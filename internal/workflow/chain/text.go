package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	wfmodel "seo-writer-api/internal/workflow/model"
	workflowport "seo-writer-api/internal/workflow/port"
	workflowprompt "seo-writer-api/internal/workflow/prompt"
)

type textRequest struct {
	Options wfmodel.LLMOptions
	Vars    map[string]any
}

type textChainState struct {
	In       *textRequest
	Messages []*schema.Message
	OutMsg   *schema.Message
}

// TextChain 单 prompt 文本生成：template -> llm -> finalize
type TextChain struct {
	factory  workflowport.ChatModelFactory
	workflow string
	promptID workflowprompt.PromptID

	chainOnce sync.Once
	chain     compose.Runnable[*textRequest, string]
	chainErr  error
}

func newTextChain(factory workflowport.ChatModelFactory, workflow string, promptID workflowprompt.PromptID) *TextChain {
	return &TextChain{factory: factory, workflow: workflow, promptID: promptID}
}

func (c *TextChain) invoke(ctx context.Context, opts wfmodel.LLMOptions, vars map[string]any) (string, error) {
	if c == nil || c.factory == nil {
		return "", fmt.Errorf("llm factory not configured")
	}
	chain, err := c.getChain()
	if err != nil {
		return "", err
	}
	return chain.Invoke(ctx, &textRequest{Options: opts, Vars: vars})
}

// stream 返回 Eino StreamReader；调用方负责 Close()。
func (c *TextChain) stream(ctx context.Context, opts wfmodel.LLMOptions, vars map[string]any) (*schema.StreamReader[*schema.Message], error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	msgs, err := formatMessages(ctx, c.promptID, vars)
	if err != nil {
		return nil, err
	}
	return stream(ctx, c.factory, c.workflow, opts, msgs)
}

func (c *TextChain) getChain() (compose.Runnable[*textRequest, string], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *TextChain) buildChain(ctx context.Context) (compose.Runnable[*textRequest, string], error) {
	chain := compose.NewChain[*textRequest, string]()

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, in *textRequest) (*textChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			msgs, err := formatMessages(ctx, c.promptID, in.Vars)
			if err != nil {
				return nil, err
			}
			return &textChainState{In: in, Messages: msgs}, nil
		}),
		compose.WithNodeName(c.workflow+".template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *textChainState) (*textChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			outMsg, err := generate(ctx, c.factory, c.workflow, st.In.Options, st.Messages, nil)
			if err != nil {
				return nil, err
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName(c.workflow+".llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *textChainState) (string, error) {
			if st == nil || st.OutMsg == nil {
				return "", fmt.Errorf("state is nil")
			}
			return strings.TrimSpace(st.OutMsg.Content), nil
		}),
		compose.WithNodeName(c.workflow+".finalize"),
	)

	return chain.Compile(ctx)
}
