package auth

import "devfolio/internal/model"

// Status 是认证状态机的三个状态。
type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// State 是某一时刻的认证快照。User 与 Token 只会同时出现或同时为空。
type State struct {
	Status Status
	User   *model.User
	Token  string
	Err    error
}

// IsAuthenticated holds exactly when both user and token are present.
func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil && s.Token != ""
}

// IsLoading reports whether initialization or an auth call is still pending.
func (s State) IsLoading() bool {
	return s.Status == StatusLoading
}

// ActionType 枚举所有可触发状态迁移的动作。
type ActionType int

const (
	ActionSetLoading ActionType = iota
	ActionLoginSuccess
	ActionLoginFailure
	ActionLogout
	ActionAuthError
)

// Action 是一次状态迁移请求。
type Action struct {
	Type  ActionType
	User  *model.User
	Token string
	Err   error
}

// Reduce 计算迁移后的状态，未知动作保持原状态。
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionSetLoading:
		return State{Status: StatusLoading}
	case ActionLoginSuccess:
		if a.User == nil || a.Token == "" {
			return State{Status: StatusUnauthenticated, Err: errIncompleteSession}
		}
		user := *a.User
		return State{Status: StatusAuthenticated, User: &user, Token: a.Token}
	case ActionLoginFailure, ActionAuthError:
		return State{Status: StatusUnauthenticated, Err: a.Err}
	case ActionLogout:
		return State{Status: StatusUnauthenticated}
	}
	return s
}
