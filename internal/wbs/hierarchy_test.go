package wbs

import (
	"testing"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	assert.Equal(t, "3", GenerateCode("", 3))
	assert.Equal(t, "1.2", GenerateCode("1", 2))
	assert.Equal(t, "1.2.10", GenerateCode("1.2", 10))
}

func TestAllowedChildTypes(t *testing.T) {
	assert.Equal(t, []domain.WbsType{domain.WbsActivity}, AllowedChildTypes(domain.WbsPhase))
	assert.Equal(t, []domain.WbsType{domain.WbsTask}, AllowedChildTypes(domain.WbsActivity))
	assert.Empty(t, AllowedChildTypes(domain.WbsTask))
}

func TestAllowedChildTypes_ReturnsCopy(t *testing.T) {
	got := AllowedChildTypes(domain.WbsPhase)
	got[0] = domain.WbsTask
	assert.Equal(t, []domain.WbsType{domain.WbsActivity}, AllowedChildTypes(domain.WbsPhase))
}

func TestValidateChildType(t *testing.T) {
	cases := []struct {
		parent, child domain.WbsType
		ok            bool
	}{
		{domain.WbsPhase, domain.WbsActivity, true},
		{domain.WbsPhase, domain.WbsTask, false},
		{domain.WbsPhase, domain.WbsPhase, false},
		{domain.WbsActivity, domain.WbsTask, true},
		{domain.WbsActivity, domain.WbsActivity, false},
		{domain.WbsTask, domain.WbsTask, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, ValidateChildType(tc.parent, tc.child), "%s -> %s", tc.parent, tc.child)
	}
}

func TestDepthOfCode(t *testing.T) {
	assert.Equal(t, 1, DepthOfCode("1"))
	assert.Equal(t, 3, DepthOfCode("1.2.3"))
	assert.Equal(t, 0, DepthOfCode(""))
	assert.Equal(t, 0, DepthOfCode("1..3"))
	assert.Equal(t, 0, DepthOfCode("1.a"))
	assert.Equal(t, 0, DepthOfCode("0"))
}

func TestDepthOfType(t *testing.T) {
	assert.Equal(t, 1, DepthOfType(domain.WbsPhase))
	assert.Equal(t, 2, DepthOfType(domain.WbsActivity))
	assert.Equal(t, 3, DepthOfType(domain.WbsTask))
	assert.Equal(t, 0, DepthOfType("MILESTONE"))
}

func TestNextSequence(t *testing.T) {
	assert.Equal(t, 1, NextSequence(nil))
	assert.Equal(t, 4, NextSequence([]string{"1.1", "1.3", "1.2"}))
	assert.Equal(t, 3, NextSequence([]string{"1", "2"}))
}

func node(projectID, code string, typ domain.WbsType) *domain.WbsNode {
	return &domain.WbsNode{ProjectID: projectID, Code: code, Type: typ, Active: true}
}

func TestValidateNode_Valid(t *testing.T) {
	phase := node("p1", "1", domain.WbsPhase)
	activity := node("p1", "1.2", domain.WbsActivity)
	task := node("p1", "1.2.1", domain.WbsTask)

	require.NoError(t, ValidateNode(nil, phase))
	require.NoError(t, ValidateNode(phase, activity))
	require.NoError(t, ValidateNode(activity, task))
}

func TestValidateNode_Violations(t *testing.T) {
	phase := node("p1", "1", domain.WbsPhase)
	activity := node("p1", "1.1", domain.WbsActivity)
	task := node("p1", "1.1.1", domain.WbsTask)

	cases := []struct {
		name   string
		parent *domain.WbsNode
		node   *domain.WbsNode
	}{
		{"root activity", nil, node("p1", "1", domain.WbsActivity)},
		{"task under phase", phase, node("p1", "1.1", domain.WbsTask)},
		{"child of task", task, node("p1", "1.1.1.1", domain.WbsTask)},
		{"depth mismatch", phase, node("p1", "1.1.1", domain.WbsActivity)},
		{"code outside parent", phase, node("p1", "2.1", domain.WbsActivity)},
		{"cross project", activity, node("p2", "1.1.2", domain.WbsTask)},
		{"unknown type", nil, node("p1", "1", "MILESTONE")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateNode(tc.parent, tc.node)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)
		})
	}
}

func TestValidateNode_InactiveParent(t *testing.T) {
	phase := node("p1", "1", domain.WbsPhase)
	phase.Active = false
	err := ValidateNode(phase, node("p1", "1.1", domain.WbsActivity))
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)
	assert.Contains(t, err.Error(), "inactive")
}
