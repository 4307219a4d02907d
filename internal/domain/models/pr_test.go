package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDerivesOwnerAndRepoFromFullName(t *testing.T) {
	pr := &PullRequest{
		Number: 12,
		Base: &Branch{
			Repo: &Repository{FullName: "foo/bar"},
		},
	}

	pr.Normalize()

	assert.Equal(t, "foo", pr.Owner)
	assert.Equal(t, "bar", pr.Repo)
}

func TestNormalizeFallsBackToOwnerLogin(t *testing.T) {
	pr := &PullRequest{
		Base: &Branch{
			Repo: &Repository{
				Name:  "bar",
				Owner: User{Login: "foo"},
			},
		},
	}

	pr.Normalize()

	assert.Equal(t, "foo", pr.Owner)
	assert.Equal(t, "bar", pr.Repo)
}

func TestCacheKeyFormat(t *testing.T) {
	pr := &PullRequest{
		Number:   42,
		Platform: "gitee",
		Owner:    "foo",
		Repo:     "bar",
	}

	assert.Equal(t, "gitee:foo/bar#42", pr.CacheKey())

	ref := PRRef{Platform: "gitee", Owner: "foo", Repo: "bar", Number: 42}
	assert.Equal(t, pr.CacheKey(), ref.CacheKey())
}

func TestRefMirrorsSnapshot(t *testing.T) {
	pr := &PullRequest{
		Number:   7,
		Platform: "github",
		Owner:    "foo",
		Repo:     "bar",
	}

	ref := pr.Ref()

	assert.Equal(t, PRRef{Platform: "github", Owner: "foo", Repo: "bar", Number: 7}, ref)
}

func TestLabelHelpers(t *testing.T) {
	pr := &PullRequest{
		Labels: []Label{
			{Name: "bug"},
			{Name: "pipeline-failed"},
		},
	}

	require.Equal(t, []string{"bug", "pipeline-failed"}, pr.LabelNames())
	assert.True(t, pr.HasLabel("bug"))
	assert.False(t, pr.HasLabel("feature"))
}

func TestStateHelpers(t *testing.T) {
	open := &PullRequest{State: StateOpen}
	merged := &PullRequest{State: StateMerged}

	assert.True(t, open.IsOpen())
	assert.False(t, open.IsClosed())
	assert.True(t, merged.IsClosed())
}
