package bitget

import "testing"

func TestSignKnownVectors(t *testing.T) {
	cases := []struct {
		name        string
		method      string
		requestPath string
		body        string
		want        string
	}{
		{
			name:        "signed GET includes query string",
			method:      "GET",
			requestPath: "/api/v2/spot/account/assets?assetType=hold_only",
			want:        "mJG6fKy6fHL00x/I4Qp4TE+HDNDz4fYR8kovdxsxwJg=",
		},
		{
			name:        "signed POST includes body",
			method:      "POST",
			requestPath: "/api/v2/spot/trade/place-order",
			body:        `{"symbol":"BTCUSDT"}`,
			want:        "yjlr8IX9eyYNbY7wF9jrlU4S42LuWxiz9zEPDPOxfl8=",
		},
	}
	for _, tc := range cases {
		got := sign("test-secret", "1700000000000", tc.method, tc.requestPath, tc.body)
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestCredentialsComplete(t *testing.T) {
	if (Credentials{}).Complete() {
		t.Error("empty credentials should not be complete")
	}
	if (Credentials{AccessKey: "k", SecretKey: "s"}).Complete() {
		t.Error("missing passphrase should not be complete")
	}
	if !(Credentials{AccessKey: "k", SecretKey: "s", Passphrase: "p"}).Complete() {
		t.Error("full key set should be complete")
	}
}
