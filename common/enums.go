// Copyright (c) 2026 tocmover contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.

package common

import (
	"encoding/json"
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
)

// JobStatus tracks a coordinator job's lifecycle (spec §3, Job.Lifecycle).
var EJobStatus = JobStatus(0)

type JobStatus uint8

func (JobStatus) Idle() JobStatus           { return JobStatus(0) }
func (JobStatus) Running() JobStatus        { return JobStatus(1) }
func (JobStatus) Paused() JobStatus         { return JobStatus(2) }
func (JobStatus) Completed() JobStatus      { return JobStatus(3) }
func (JobStatus) Aborted() JobStatus        { return JobStatus(4) }
func (JobStatus) DryRunComplete() JobStatus { return JobStatus(5) }

func (j JobStatus) String() string { return enum.StringInt(j, reflect.TypeOf(j)) }

func (j *JobStatus) Parse(s string) error {
	val, err := enum.ParseInt(reflect.TypeOf(j), s, true, true)
	if err == nil {
		*j = val.(JobStatus)
	}
	return err
}

func (j JobStatus) MarshalJSON() ([]byte, error) { return json.Marshal(j.String()) }

func (j *JobStatus) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return j.Parse(s)
}

// IsTerminal reports whether the job needs no further dispatch (spec §3).
func (j JobStatus) IsTerminal() bool {
	return j == EJobStatus.Completed() || j == EJobStatus.Aborted() || j == EJobStatus.DryRunComplete()
}

////////////////////////////////////////////////////////////////////////////

// Provider is the closed set of cloud storage back ends (spec §3).
var EProvider = Provider(0)

type Provider uint8

func (Provider) Unknown() Provider  { return Provider(0) }
func (Provider) GDrive() Provider   { return Provider(1) }
func (Provider) S3() Provider       { return Provider(2) }
func (Provider) B2() Provider       { return Provider(3) }
func (Provider) Dropbox() Provider  { return Provider(4) }
func (Provider) OneDrive() Provider { return Provider(5) }
func (Provider) Azure() Provider    { return Provider(6) }

func (p Provider) String() string { return enum.StringInt(p, reflect.TypeOf(p)) }

func (p *Provider) Parse(s string) error {
	val, err := enum.ParseInt(reflect.TypeOf(p), s, true, true)
	if err == nil {
		*p = val.(Provider)
	}
	return err
}

func (p Provider) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

func (p *Provider) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return p.Parse(s)
}

// IsGoogleFlavoured reports whether this provider resets at midnight Pacific
// rather than midnight UTC (spec §3, §4.2 Reset).
func (p Provider) IsGoogleFlavoured() bool {
	return p == EProvider.GDrive()
}

////////////////////////////////////////////////////////////////////////////

// ActionKind is the classification oracle's decision family (spec §4.1).
var EActionKind = ActionKind(0)

type ActionKind uint8

func (ActionKind) Ignore() ActionKind   { return ActionKind(0) }
func (ActionKind) Transfer() ActionKind { return ActionKind(1) }
func (ActionKind) Link() ActionKind     { return ActionKind(2) }
func (ActionKind) Convert() ActionKind  { return ActionKind(3) }
func (ActionKind) Compress() ActionKind { return ActionKind(4) }

func (a ActionKind) String() string { return enum.StringInt(a, reflect.TypeOf(a)) }

////////////////////////////////////////////////////////////////////////////

// LinkTarget distinguishes the two ghost-link destinations (spec §4.1 rule 2).
var ELinkTarget = LinkTarget(0)

type LinkTarget uint8

func (LinkTarget) SourceLocation() LinkTarget { return LinkTarget(0) }
func (LinkTarget) ColdStorage() LinkTarget     { return LinkTarget(1) }

func (l LinkTarget) String() string { return enum.StringInt(l, reflect.TypeOf(l)) }

////////////////////////////////////////////////////////////////////////////

// Priority is the urgency hint attached to transfer/convert/compress actions.
var EPriority = Priority(0)

type Priority uint8

func (Priority) Low() Priority       { return Priority(0) }
func (Priority) Medium() Priority    { return Priority(1) }
func (Priority) High() Priority      { return Priority(2) }
func (Priority) Immediate() Priority { return Priority(3) }

func (p Priority) String() string { return enum.StringInt(p, reflect.TypeOf(p)) }

////////////////////////////////////////////////////////////////////////////

// LogLevel mirrors azcopy's common.LogLevel shape but backs onto zerolog.
var ELogLevel = LogLevel(0)

type LogLevel uint8

func (LogLevel) None() LogLevel  { return LogLevel(0) }
func (LogLevel) Error() LogLevel { return LogLevel(1) }
func (LogLevel) Warn() LogLevel  { return LogLevel(2) }
func (LogLevel) Info() LogLevel  { return LogLevel(3) }
func (LogLevel) Debug() LogLevel { return LogLevel(4) }

func (l LogLevel) String() string { return enum.StringInt(l, reflect.TypeOf(l)) }

func (l *LogLevel) Parse(s string) error {
	val, err := enum.ParseInt(reflect.TypeOf(l), s, true, true)
	if err == nil {
		*l = val.(LogLevel)
	}
	return err
}

////////////////////////////////////////////////////////////////////////////

// LinkFailurePolicy resolves the §9 open question on ghost-link failures.
var ELinkFailurePolicy = LinkFailurePolicy(0)

type LinkFailurePolicy uint8

func (LinkFailurePolicy) DemoteToTransfer() LinkFailurePolicy { return LinkFailurePolicy(0) }
func (LinkFailurePolicy) Skip() LinkFailurePolicy             { return LinkFailurePolicy(1) }

func (l LinkFailurePolicy) String() string { return enum.StringInt(l, reflect.TypeOf(l)) }
