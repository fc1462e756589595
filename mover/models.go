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

// Package mover is the thin JSON-RPC client facade for the external data
// mover (spec §4.5, §6.1). It never copies bytes itself: it only issues
// control-plane requests (list, copyfile, job/status, ...) and parses the
// documented minimal response shapes.
package mover

import "time"

// Method is the closed set of RPC method names this facade speaks,
// patterned after azcopy's RpcCmd (common/rpc-models.go): a named command
// whose wire path is "/" + the command name.
type Method string

const (
	MethodNoop          Method = "rc/noop"
	MethodList          Method = "operations/list"
	MethodCopyFile      Method = "operations/copyfile"
	MethodJobStatus     Method = "job/status"
	MethodJobStop       Method = "job/stop"
	MethodAbout         Method = "operations/about"
	MethodPublicLink    Method = "operations/publiclink"
	MethodCoreStats     Method = "core/stats"
	MethodHashsum       Method = "operations/hashsum"
)

// Pattern returns the HTTP path this method is posted to.
func (m Method) Pattern() string { return "/" + string(m) }

// ListEntry is one element of operations/list's response (spec §6.1).
type ListEntry struct {
	Path     string    `json:"Path"`
	Name     string    `json:"Name"`
	Size     int64     `json:"Size"`
	ModTime  time.Time `json:"ModTime"`
	IsDir    bool      `json:"IsDir"`
	MimeType string    `json:"MimeType,omitempty"`
}

type listResponse struct {
	List []ListEntry `json:"list"`
}

type copyFileResponse struct {
	JobID int64 `json:"jobid"`
}

// JobStatusResult is job/status's response shape (spec §6.1).
type JobStatusResult struct {
	Finished bool     `json:"finished"`
	Success  *bool    `json:"success,omitempty"`
	Error    string   `json:"error,omitempty"`
	Progress *float64 `json:"progress,omitempty"`
}

// AboutResult is operations/about's response shape (spec §6.1).
type AboutResult struct {
	Total *int64 `json:"total,omitempty"`
	Used  *int64 `json:"used,omitempty"`
	Free  *int64 `json:"free,omitempty"`
}

// CopyFileOptions mirrors the handful of copyfile parameters this core
// needs to pass through untouched.
type CopyFileOptions struct {
	SrcFs     string
	SrcRemote string
	DstFs     string
	DstRemote string
	Extra     map[string]interface{} // forwarded verbatim, e.g. blob tier hints
}
