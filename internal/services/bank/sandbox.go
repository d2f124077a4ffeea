package bank

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SandboxProvider is an in-process provider for development and tests. It
// accepts every call, remembers what it saw, and can be told to fail the
// next N calls to exercise the worker's retry paths.
type SandboxProvider struct {
	mu sync.Mutex

	vaCalls       []CreateVARequest
	transferCalls []TransferRequest
	refs          map[string]string // idempotency key -> provider ref

	failures  int
	transient bool
}

func NewSandboxProvider() *SandboxProvider {
	return &SandboxProvider{refs: make(map[string]string)}
}

// FailNext makes the next n calls fail; transient controls the error class.
func (p *SandboxProvider) FailNext(n int, transient bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = n
	p.transient = transient
}

// VACalls returns a copy of the recorded virtual account requests.
func (p *SandboxProvider) VACalls() []CreateVARequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]CreateVARequest(nil), p.vaCalls...)
}

// TransferCalls returns a copy of the recorded transfer requests.
func (p *SandboxProvider) TransferCalls() []TransferRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TransferRequest(nil), p.transferCalls...)
}

func (p *SandboxProvider) fail() error {
	if p.failures <= 0 {
		return nil
	}
	p.failures--
	if p.transient {
		return NewTransientError("sandbox_unavailable", fmt.Errorf("simulated outage"))
	}
	return NewTerminalError("sandbox_rejected", fmt.Errorf("simulated rejection"))
}

// ref deduplicates by idempotency key, mirroring a provider that honors
// retried references.
func (p *SandboxProvider) ref(key string) string {
	if existing, ok := p.refs[key]; ok {
		return existing
	}
	ref := "SBX-" + uuid.NewString()
	p.refs[key] = ref
	return ref
}

func (p *SandboxProvider) CreateVirtualAccount(ctx context.Context, req CreateVARequest) (*CreateVAResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail(); err != nil {
		return nil, err
	}
	p.vaCalls = append(p.vaCalls, req)
	return &CreateVAResponse{ProviderRef: p.ref(req.TrxID), Status: StatusAccepted}, nil
}

func (p *SandboxProvider) TransferFunds(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail(); err != nil {
		return nil, err
	}
	p.transferCalls = append(p.transferCalls, req)
	return &TransferResponse{ProviderRef: p.ref(req.ReferenceNumber), Status: StatusCompleted}, nil
}

func (p *SandboxProvider) InquireStatus(ctx context.Context, providerRef string) (*StatusResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ref := range p.refs {
		if ref == providerRef {
			return &StatusResponse{Status: StatusCompleted}, nil
		}
	}
	return &StatusResponse{Status: StatusFailed, Detail: "unknown reference"}, nil
}
