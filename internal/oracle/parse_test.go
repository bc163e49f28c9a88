package oracle

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ParseTestSuite struct {
	suite.Suite
}

func TestParseSuite(t *testing.T) {
	suite.Run(t, new(ParseTestSuite))
}

func (suite *ParseTestSuite) TestPlainJSON() {
	decision, ok := ParseDecision(`{"decision": "BUY", "percentage": 25, "reasoning": "oversold"}`)
	suite.True(ok)
	suite.Equal(ActionBuy, decision.Decision)
	suite.InDelta(25, decision.Percentage, 1e-9)
	suite.Equal("oversold", decision.Reasoning)
}

func (suite *ParseTestSuite) TestJSONInsideMarkdownFence() {
	reply := "Here is my call:\n```json\n{\"decision\": \"sell\", \"percentage\": 50, \"reasoning\": \"overbought\"}\n```\nGood luck."

	decision, ok := ParseDecision(reply)
	suite.True(ok)
	suite.Equal(ActionSell, decision.Decision)
	suite.InDelta(50, decision.Percentage, 1e-9)
}

func (suite *ParseTestSuite) TestLowercaseDecisionNormalized() {
	decision, ok := ParseDecision(`{"decision": "buy", "percentage": 10}`)
	suite.True(ok)
	suite.Equal(ActionBuy, decision.Decision)
}

func (suite *ParseTestSuite) TestWaitDecision() {
	decision, ok := ParseDecision(`{"decision": "WAIT", "percentage": 80, "reasoning": "unclear"}`)
	suite.True(ok)
	suite.Equal(ActionWait, decision.Decision)
	suite.Zero(decision.Percentage)
}

func (suite *ParseTestSuite) TestPercentageClamped() {
	decision, ok := ParseDecision(`{"decision": "BUY", "percentage": 250}`)
	suite.True(ok)
	suite.InDelta(100, decision.Percentage, 1e-9)

	decision, ok = ParseDecision(`{"decision": "SELL", "percentage": -5}`)
	suite.True(ok)
	suite.Zero(decision.Percentage)
}

func (suite *ParseTestSuite) TestMalformedRepliesBecomeWait() {
	for _, reply := range []string{
		"",
		"no json at all",
		"{broken json",
		`{"decision": "HOLD_EVERYTHING", "percentage": 10}`,
		`{"decision": 42}`,
	} {
		decision, ok := ParseDecision(reply)
		suite.False(ok, "reply %q should not parse", reply)
		suite.Equal(ActionWait, decision.Decision)
	}
}

func (suite *ParseTestSuite) TestNestedObjectInReasoningIgnored() {
	decision, ok := ParseDecision(`{"decision": "BUY", "percentage": 5, "reasoning": "support at {keylevel}"}`)
	suite.True(ok)
	suite.Equal(ActionBuy, decision.Decision)
}
