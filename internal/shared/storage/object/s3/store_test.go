package s3

import (
	"strings"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestPutInputEncryption(t *testing.T) {
	tests := []struct {
		name    string
		kmsKey  string
		wantSSE s3types.ServerSideEncryption
	}{
		{name: "aes default", wantSSE: s3types.ServerSideEncryptionAes256},
		{name: "kms key", kmsKey: "arn:aws:kms:key", wantSSE: s3types.ServerSideEncryptionAwsKms},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{bucket: "b", kmsKeyID: tt.kmsKey}
			in := s.putInput("docs/a.json", "application/json", strings.NewReader("{}"))
			if in.ServerSideEncryption != tt.wantSSE {
				t.Fatalf("expected %s, got %s", tt.wantSSE, in.ServerSideEncryption)
			}
			if tt.kmsKey != "" && (in.SSEKMSKeyId == nil || *in.SSEKMSKeyId != tt.kmsKey) {
				t.Fatalf("expected kms key id %q", tt.kmsKey)
			}
			if *in.ContentType != "application/json" || *in.Key != "docs/a.json" {
				t.Fatalf("unexpected input %+v", in)
			}
		})
	}
}
