package types

// ProxyUpdate is pushed to dashboard clients whenever the detection outcome changes.
type ProxyUpdate struct {
	Proxy  *string     `json:"proxy"`
	Source ProxySource `json:"source,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewProxyUpdate builds the update message for one detection outcome.
func NewProxyUpdate(p *DetectedProxy, err error) *ProxyUpdate {
	u := &ProxyUpdate{}
	if err != nil {
		u.Error = err.Error()
		return u
	}
	if p != nil {
		proxyURL := p.URL
		u.Proxy = &proxyURL
		u.Source = p.Source
	}
	return u
}

// Equal reports whether two updates describe the same outcome.
func (u *ProxyUpdate) Equal(o *ProxyUpdate) bool {
	if u == nil || o == nil {
		return u == o
	}
	if u.Error != o.Error || u.Source != o.Source {
		return false
	}
	if u.Proxy == nil || o.Proxy == nil {
		return u.Proxy == o.Proxy
	}
	return *u.Proxy == *o.Proxy
}
