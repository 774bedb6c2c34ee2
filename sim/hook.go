package sim

import "github.com/sarchlab/vsim/sim/hooking"

// Hook positions raised by the Scheduler.
var (
	// HookPosBeforeCallback fires before a scheduled callback runs. The item
	// is a CallbackInfo.
	HookPosBeforeCallback = &hooking.HookPos{Name: "BeforeCallback"}

	// HookPosAfterCallback fires after a scheduled callback returns. The item
	// is a CallbackInfo.
	HookPosAfterCallback = &hooking.HookPos{Name: "AfterCallback"}

	// HookPosProcessStart fires when a process body starts for the first
	// time. The item is the *Process.
	HookPosProcessStart = &hooking.HookPos{Name: "ProcessStart"}

	// HookPosProcessSuspend fires when a process suspends at a wait point.
	HookPosProcessSuspend = &hooking.HookPos{Name: "ProcessSuspend"}

	// HookPosProcessResume fires when a suspended process is resumed.
	HookPosProcessResume = &hooking.HookPos{Name: "ProcessResume"}

	// HookPosProcessFinish fires when a process finishes.
	HookPosProcessFinish = &hooking.HookPos{Name: "ProcessFinish"}
)

// CallbackInfo describes the scheduled callback being dispatched.
type CallbackInfo struct {
	Time VTime
	Seq  uint64
}
