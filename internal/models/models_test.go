package models

import (
	"regexp"
	"testing"
)

// TestQualityString 清晰度标签
func TestQualityString(t *testing.T) {
	tests := []struct {
		quality Quality
		want    string
	}{
		{QualityUnknown, "unknown"},
		{QualityCAM, "CAM"},
		{QualityTS, "TS"},
		{QualitySD, "SD"},
		{QualityHD720, "720p"},
		{QualityHD1080, "1080p"},
		{QualityUHD4K, "4K"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.quality.String(); got != tt.want {
				t.Errorf("String() = %q, 期望 %q", got, tt.want)
			}
		})
	}
}

// TestProbeOutcomeString 探测结果标签
func TestProbeOutcomeString(t *testing.T) {
	if OutcomeAlive.String() != "alive" {
		t.Error("OutcomeAlive标签错误")
	}
	if OutcomeDead.String() != "dead" {
		t.Error("OutcomeDead标签错误")
	}
	if OutcomeChallenge.String() != "challenge" {
		t.Error("OutcomeChallenge标签错误")
	}
}

// TestHostDescriptorValidate 描述符校验规则
func TestHostDescriptorValidate(t *testing.T) {
	valid := HostDescriptor{
		Name:          "testhost",
		DomainAliases: []string{"testhost.example"},
		FileIDPattern: regexp.MustCompile(`^/e/(\w+)$`),
		CanonicalPath: "/e/%s",
	}

	tests := []struct {
		name    string
		mutate  func(*HostDescriptor)
		wantErr bool
	}{
		{"完整描述符通过", func(d *HostDescriptor) {}, false},
		{"缺少名称", func(d *HostDescriptor) { d.Name = "" }, true},
		{"缺少域名别名", func(d *HostDescriptor) { d.DomainAliases = nil }, true},
		{"缺少ID正则", func(d *HostDescriptor) { d.FileIDPattern = nil }, true},
		{"规范路径缺少占位符", func(d *HostDescriptor) { d.CanonicalPath = "/e/embed" }, true},
		{"规范路径为空", func(d *HostDescriptor) { d.CanonicalPath = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := valid
			tt.mutate(&desc)
			err := desc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
