package batch

import (
	"fmt"
	"strings"

	"github.com/viant/phaser/internal/yml"
	"github.com/viant/phaser/model"
	"gopkg.in/yaml.v3"
)

// DecodeYAML decodes a batch. Flows are either a sequence or a mapping keyed
// by flow id; phases are keyed by phase symbol, directly on the flow or under
// "phases".
func DecodeYAML(encoded []byte) (*model.Batch, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(encoded, &node); err != nil {
		return nil, err
	}
	root := (*yml.Node)(&node).Root()
	ret := &model.Batch{}
	err := root.Pairs(func(key string, value *yml.Node) error {
		switch strings.ToLower(key) {
		case "id":
			id, err := value.String()
			ret.ID = id
			return err
		case "flows":
			flows, err := parseFlows(value)
			ret.Flows = flows
			return err
		}
		return fmt.Errorf("line %d: unknown batch attribute %q", value.Line, key)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func parseFlows(node *yml.Node) ([]*model.Flow, error) {
	var ret []*model.Flow
	switch node.Kind {
	case yaml.SequenceNode:
		err := node.Items(func(_ int, item *yml.Node) error {
			flow, err := parseFlow("", item)
			if err != nil {
				return err
			}
			ret = append(ret, flow)
			return nil
		})
		return ret, err
	case yaml.MappingNode:
		err := node.Pairs(func(id string, item *yml.Node) error {
			flow, err := parseFlow(id, item)
			if err != nil {
				return err
			}
			ret = append(ret, flow)
			return nil
		})
		return ret, err
	}
	return nil, fmt.Errorf("line %d: flows should be a sequence or mapping", node.Line)
}

func parseFlow(id string, node *yml.Node) (*model.Flow, error) {
	flow := &model.Flow{ID: id}
	err := node.Pairs(func(key string, value *yml.Node) error {
		var err error
		switch strings.ToLower(key) {
		case "id":
			flow.ID, err = value.String()
		case "blockers", "blockerids":
			flow.BlockerIDs, err = value.Strings()
		case "phases":
			err = value.Pairs(func(name string, executions *yml.Node) error {
				return parsePhase(flow, name, executions)
			})
		default:
			err = parsePhase(flow, key, value)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", flow.ID, err)
	}
	return flow, nil
}

func parsePhase(flow *model.Flow, name string, node *yml.Node) error {
	phase, err := model.ParsePhase(name)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: phase %s should be a sequence of executions", node.Line, name)
	}
	return node.Items(func(_ int, item *yml.Node) error {
		execution := &model.Execution{}
		if err := (*yaml.Node)(item).Decode(execution); err != nil {
			return fmt.Errorf("phase %s: %w", name, err)
		}
		defaultKind(execution)
		flow.Add(phase, execution)
		return nil
	})
}
