//go:build cgo

package native

/*
#include <stdlib.h>
#include <string.h>
#include "abi.h"

extern int saGoDetInference(ERImage* input, unsigned char* output);
extern int saGoSclInference(ERImage* input, unsigned char* output);

int sa_go_det_callback(const ERImage *in, unsigned char *out) { return saGoDetInference((ERImage *)in, out); }
int sa_go_scl_callback(const ERImage *in, unsigned char *out) { return saGoSclInference((ERImage *)in, out); }

int sa_link(uintptr_t fn, uintptr_t handle, SaAPI *api) {
	return ((fcn_saLinkAPI)fn)((void *)handle, api);
}

const char *sa_version(const SaAPI *api) { return api->saVersion(); }

int sa_init(const SaAPI *api, const char *path, SaConfig *cfg, SAState *st) {
	return api->saInit(path, cfg, st);
}

void sa_free(const SaAPI *api, SAState st) { api->saFree(st); }

int sa_run_det(const SaAPI *api, SAState st, const ERImage *img, const ERRoI *roi, SaDetResult *res) {
	return api->saRunDet(st, *img, roi, res);
}

void sa_free_det_result(const SaAPI *api, SAState st, SaDetResult *res) { api->saFreeDetResult(st, res); }

int sa_run_scl(const SaAPI *api, SAState st, const ERImage *img, const ERRotatedRect *pos, const char *label, SaSclResult *res) {
	return api->saRunScl(st, *img, pos, label, res);
}

unsigned int sa_image_data_type_size(const SaAPI *api, int dt) { return api->erImageGetDataTypeSize(dt); }
unsigned int sa_image_channels(const SaAPI *api, int cm) { return api->erImageGetColorModelNumChannels(cm); }
unsigned int sa_image_pixel_depth(const SaAPI *api, int cm, int dt) { return api->erImageGetPixelDepth(cm, dt); }
int sa_image_allocate_blank(const SaAPI *api, ERImage *img) { return api->erImageAllocateBlank(img); }

int sa_image_allocate(const SaAPI *api, ERImage *img, unsigned int w, unsigned int h, int cm, int dt) {
	return api->erImageAllocate(img, w, h, cm, dt);
}

int sa_image_wrap(const SaAPI *api, ERImage *img, unsigned int w, unsigned int h, int cm, int dt, unsigned char *data, unsigned int step) {
	return api->erImageAllocateAndWrap(img, w, h, cm, dt, data, step);
}

int sa_image_copy(const SaAPI *api, const ERImage *src, ERImage *dst) { return api->erImageCopy(src, dst); }
int sa_image_read(const SaAPI *api, ERImage *img, const char *path) { return api->erImageRead(img, path); }
int sa_image_write(const SaAPI *api, const ERImage *img, const char *path) { return api->erImageWrite(img, path); }
void sa_image_free(const SaAPI *api, ERImage *img) { api->erImageFree(img); }
*/
import "C"
