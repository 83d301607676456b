package formclient

// State 表单在界面上的状态
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateInfo       State = "info"
	StateError      State = "error"
)

// Effect 状态迁移要求界面执行的副作用
type Effect string

const (
	EffectNone            Effect = "none"
	EffectReportValidity  Effect = "report_validity"
	EffectSimulateSuccess Effect = "simulate_success"
	EffectShowInfo        Effect = "show_info"
	EffectSendRequest     Effect = "send_request"
	EffectClearForm       Effect = "clear_form"
	EffectShowFallback    Effect = "show_fallback"
	EffectIgnore          Effect = "ignore"
)

// Event 驱动状态机的输入
type Event interface {
	event()
}

// Submit 用户提交表单
type Submit struct {
	Honeypot           bool // 隐藏字段被填写
	Valid              bool // 通过必填与邮箱格式检查
	EndpointConfigured bool
}

// Resolved 网络请求结束
type Resolved struct {
	OK bool
}

// DelayElapsed 蜜罐模拟延迟结束
type DelayElapsed struct{}

func (Submit) event()       {}
func (Resolved) event()     {}
func (DelayElapsed) event() {}

// Reduce 纯函数：根据当前状态和事件计算下一个状态与副作用
//
// submitting 期间的重复提交被忽略；终态（success/info/error）接受新的提交，
// 与 idle 相同。与当前状态不匹配的事件不改变状态。
func Reduce(state State, ev Event) (State, Effect) {
	switch e := ev.(type) {
	case Submit:
		if state == StateSubmitting {
			return state, EffectIgnore
		}
		switch {
		case e.Honeypot:
			return StateSubmitting, EffectSimulateSuccess
		case !e.Valid:
			return state, EffectReportValidity
		case !e.EndpointConfigured:
			return StateInfo, EffectShowInfo
		default:
			return StateSubmitting, EffectSendRequest
		}

	case Resolved:
		if state != StateSubmitting {
			return state, EffectNone
		}
		if e.OK {
			return StateSuccess, EffectClearForm
		}
		return StateError, EffectShowFallback

	case DelayElapsed:
		if state != StateSubmitting {
			return state, EffectNone
		}
		return StateSuccess, EffectClearForm
	}

	return state, EffectNone
}

// ControlDisabled 报告提交按钮是否应禁用
func (s State) ControlDisabled() bool {
	return s == StateSubmitting
}
