package bodhi

import "github.com/bytedance/sonic"

var wireAPI = sonic.ConfigStd

func encodeMessage(v any) ([]byte, error) {
	return wireAPI.Marshal(v)
}

func decodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := wireAPI.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
