package checks

import (
	"context"

	"github.com/stretchr/testify/mock"

	gh "repoguard/internal/github"
	"repoguard/internal/output"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetBranch(ctx context.Context, name string) (*gh.Branch, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gh.Branch), args.Error(1)
}

func (m *MockProvider) ProtectBranch(ctx context.Context, name string, policy gh.ProtectionPolicy) error {
	args := m.Called(ctx, name, policy)
	return args.Error(0)
}

func (m *MockProvider) ListDeployKeys(ctx context.Context) ([]gh.DeployKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gh.DeployKey), args.Error(1)
}

func (m *MockProvider) ListCollaborators(ctx context.Context) ([]gh.Collaborator, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gh.Collaborator), args.Error(1)
}

func (m *MockProvider) SetCollaboratorPermission(ctx context.Context, login, level string) (*gh.PermissionUpdate, error) {
	args := m.Called(ctx, login, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gh.PermissionUpdate), args.Error(1)
}

type recorder struct {
	findings []output.Finding
}

func (r *recorder) Report(f output.Finding) {
	r.findings = append(r.findings, f)
}

func (r *recorder) lines() []string {
	out := make([]string, 0, len(r.findings))
	for _, f := range r.findings {
		out = append(out, f.Message)
	}
	return out
}
